package archive

import "github.com/sirupsen/logrus"

var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the logger used for archive diagnostics.
func SetLogger(l logrus.FieldLogger) {
	logger = l
}
