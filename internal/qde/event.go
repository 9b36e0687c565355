package qde

import (
	"encoding/xml"
	"io"
)

// EventKind is the kind of an XML event.
type EventKind uint8

const (
	StartElement EventKind = iota + 1
	EndElement
	Text
	EOF
)

// Attr is an attribute with its local name. Namespace declarations keep their
// "xmlns" / "xmlns:prefix" spelling so the decoder can recognise them.
type Attr struct {
	Name      string
	Namespace string
	Value     string
}

// Event is one item of the namespace-stripped event stream.
type Event struct {
	Kind      EventKind
	Name      string // local name, start/end only
	Namespace string // resolved namespace URI, start/end only
	Attrs     []Attr // start only
	Text      string // text only
	Line      int
	Column    int
}

// EventSource produces events in document order. After the last element it
// returns an EOF event. Errors are tokenizer failures.
type EventSource interface {
	Next() (Event, error)
}

// XMLSource adapts encoding/xml to EventSource.
type XMLSource struct {
	dec *xml.Decoder
}

// NewXMLSource tokenizes r, which must hold UTF-8 XML.
func NewXMLSource(r io.Reader) *XMLSource {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	return &XMLSource{dec: dec}
}

// Next returns the next start, end, or text event. Comments, processing
// instructions and directives are dropped.
func (s *XMLSource) Next() (Event, error) {
	for {
		line, col := s.dec.InputPos()
		tok, err := s.dec.Token()
		if err == io.EOF {
			return Event{Kind: EOF, Line: line, Column: col}, nil
		}
		if err != nil {
			return Event{Line: line, Column: col}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			ev := Event{
				Kind:      StartElement,
				Name:      t.Name.Local,
				Namespace: t.Name.Space,
				Line:      line,
				Column:    col,
			}
			if len(t.Attr) > 0 {
				ev.Attrs = make([]Attr, len(t.Attr))
				for i, a := range t.Attr {
					ev.Attrs[i] = Attr{Name: attrName(a.Name), Namespace: a.Name.Space, Value: a.Value}
				}
			}
			return ev, nil
		case xml.EndElement:
			return Event{Kind: EndElement, Name: t.Name.Local, Namespace: t.Name.Space, Line: line, Column: col}, nil
		case xml.CharData:
			return Event{Kind: Text, Text: string(t), Line: line, Column: col}, nil
		}
	}
}

func attrName(n xml.Name) string {
	if n.Space == "xmlns" {
		return "xmlns:" + n.Local
	}
	return n.Local
}
