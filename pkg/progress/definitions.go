package progress

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// trophyElement is the element name of a trophy definition node.
const trophyElement = "trophy"

// Definition is one trophy taken from a definitions source.
type Definition struct {
	ID        uint32
	GradeCode byte // First character of the ttype attribute, 0 if absent
}

// Grade returns the numeric grade for the definition's grade code.
func (d Definition) Grade() Grade {
	return GradeFromCode(d.GradeCode)
}

// Node is one element of a definitions source.
type Node interface {
	Name() string
	Attr(name string) (string, bool)
}

// DefinitionsFromNodes converts the trophy nodes of a definitions source, in
// order. Nodes with any other name are ignored.
func DefinitionsFromNodes(nodes []Node) ([]Definition, error) {
	var defs []Definition
	for i, n := range nodes {
		if n.Name() != trophyElement {
			continue
		}

		rawID, ok := n.Attr("id")
		if !ok {
			return nil, fmt.Errorf("%w: trophy node %d has no id", ErrDefinitions, i)
		}
		id, err := strconv.ParseUint(strings.TrimSpace(rawID), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: trophy node %d: id %q: %v", ErrDefinitions, i, rawID, err)
		}

		def := Definition{ID: uint32(id)}
		if ttype, ok := n.Attr("ttype"); ok && ttype != "" {
			def.GradeCode = ttype[0]
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// element is a Node read from XML.
type element struct {
	name  string
	attrs []xml.Attr
}

func (e *element) Name() string {
	return e.name
}

func (e *element) Attr(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// ReadNodes reads the direct children of the root element of an XML
// trophy configuration document, in document order.
func ReadNodes(r io.Reader) ([]Node, error) {
	dec := xml.NewDecoder(r)

	var (
		nodes []Node
		depth int
		root  bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDefinitions, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				root = true
			}
			if depth == 2 {
				nodes = append(nodes, &element{name: t.Name.Local, attrs: t.Copy().Attr})
			}
		case xml.EndElement:
			depth--
		}
	}

	if !root {
		return nil, fmt.Errorf("%w: no root element", ErrDefinitions)
	}
	return nodes, nil
}

// ReadDefinitions reads trophy definitions from an XML trophy configuration.
func ReadDefinitions(r io.Reader) ([]Definition, error) {
	nodes, err := ReadNodes(r)
	if err != nil {
		return nil, err
	}
	return DefinitionsFromNodes(nodes)
}

// ReadDefinitionsFile reads trophy definitions from the file at path.
func ReadDefinitionsFile(path string) ([]Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDefinitions, err)
	}
	defer f.Close()

	return ReadDefinitions(f)
}
