package progress

import "github.com/sirupsen/logrus"

var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the logger used for progress container diagnostics.
func SetLogger(l logrus.FieldLogger) {
	logger = l
}
