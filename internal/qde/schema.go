package qde

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/qdpx/internal/codec"
	"github.com/hpungsan/qdpx/internal/model"
)

// Element tables. Several are mutually recursive (Code contains Code, a
// PDFSelection contains a TextSource-shaped Representation), so they are
// assigned in init and referenced through pointers that are read at decode
// time.
var (
	textSpec *elementSpec[string]
	refSpec  *elementSpec[model.Ref]

	projectSpec  *elementSpec[model.Project]
	usersSpec    *elementSpec[model.Users]
	userSpec     *elementSpec[model.User]
	codebookSpec *elementSpec[model.Codebook]
	codesSpec    *elementSpec[model.Codebook]
	codeSpec     *elementSpec[model.Code]
	codingSpec   *elementSpec[model.Coding]

	sourcesSpec    *elementSpec[model.Sources]
	textSourceSpec *elementSpec[model.TextSource]
	pictureSpec    *elementSpec[model.PictureSource]
	pdfSpec        *elementSpec[model.PDFSource]
	audioSpec      *elementSpec[model.AudioSource]
	videoSpec      *elementSpec[model.VideoSource]
	transcriptSpec *elementSpec[model.Transcript]
	syncPointSpec  *elementSpec[model.SyncPoint]

	plainTextSelectionSpec  *elementSpec[model.PlainTextSelection]
	pictureSelectionSpec    *elementSpec[model.PictureSelection]
	pdfSelectionSpec        *elementSpec[model.PDFSelection]
	audioSelectionSpec      *elementSpec[model.AudioSelection]
	videoSelectionSpec      *elementSpec[model.VideoSelection]
	transcriptSelectionSpec *elementSpec[model.TranscriptSelection]

	variablesSpec     *elementSpec[model.Variables]
	variableSpec      *elementSpec[model.Variable]
	variableValueSpec *elementSpec[variableValue]
	casesSpec         *elementSpec[model.Cases]
	caseSpec          *elementSpec[model.Case]
	setsSpec          *elementSpec[model.Sets]
	setSpec           *elementSpec[model.Set]
	linksSpec         *elementSpec[model.Links]
	linkSpec          *elementSpec[model.Link]
	graphsSpec        *elementSpec[model.Graphs]
	graphSpec         *elementSpec[model.Graph]
	vertexSpec        *elementSpec[model.Vertex]
	edgeSpec          *elementSpec[model.Edge]
	notesSpec         *elementSpec[model.Notes]
)

func init() {
	textSpec = element[string](nil, nil)
	textSpec.text = func(v *string, s string) error {
		*v = s
		return nil
	}

	refSpec = element(attrs[model.Ref]{
		"targetGUID": required(idAttr(func(r *model.Ref) *uuid.UUID { return &r.Target })),
	}, nil)

	initProject()
	initCodebook()
	initSources()
	initSelections()
	initCollections()
}

func initProject() {
	projectSpec = element(attrs[model.Project]{
		"name":              required(str(func(p *model.Project) *string { return &p.Name })),
		"origin":            optStr(func(p *model.Project) **string { return &p.Origin }),
		"creatingUserGUID":  optID(func(p *model.Project) **uuid.UUID { return &p.CreatingUser }),
		"creationDateTime":  optTime(func(p *model.Project) **time.Time { return &p.CreationTime }),
		"modifyingUserGUID": optID(func(p *model.Project) **uuid.UUID { return &p.ModifyingUser }),
		"modifiedDateTime":  optTime(func(p *model.Project) **time.Time { return &p.ModifiedTime }),
		"basePath":          optStr(func(p *model.Project) **string { return &p.BasePath }),
	}, children[model.Project]{
		"Users":       one(&usersSpec, func(p *model.Project) **model.Users { return &p.Users }),
		"CodeBook":    one(&codebookSpec, func(p *model.Project) **model.Codebook { return &p.Codebook }),
		"Variables":   one(&variablesSpec, func(p *model.Project) **model.Variables { return &p.Variables }),
		"Cases":       one(&casesSpec, func(p *model.Project) **model.Cases { return &p.Cases }),
		"Sources":     one(&sourcesSpec, func(p *model.Project) **model.Sources { return &p.Sources }),
		"Notes":       one(&notesSpec, func(p *model.Project) **model.Notes { return &p.Notes }),
		"Links":       one(&linksSpec, func(p *model.Project) **model.Links { return &p.Links }),
		"Sets":        one(&setsSpec, func(p *model.Project) **model.Sets { return &p.Sets }),
		"Graphs":      one(&graphsSpec, func(p *model.Project) **model.Graphs { return &p.Graphs }),
		"Description": text(func(p *model.Project) **string { return &p.Description }),
		"NoteRef":     refs(model.KindNote, func(p *model.Project) *[]model.Ref { return &p.NoteRefs }),
	}).withCheck(func(p *model.Project) error {
		if p.Name == "" {
			return fmt.Errorf("element <Project> has an empty name")
		}
		return nil
	})

	usersSpec = element(nil, children[model.Users]{
		"User": many(&userSpec, func(u *model.Users) *[]model.User { return &u.Items }),
	})
	userSpec = element(attrs[model.User]{
		"guid": required(idAttr(func(u *model.User) *uuid.UUID { return &u.ID })),
		"name": optStr(func(u *model.User) **string { return &u.Name }),
		"id":   optStr(func(u *model.User) **string { return &u.ExternalID }),
	}, nil)
}

func initCodebook() {
	codebookSpec = element(nil, children[model.Codebook]{
		"Codes": func(d *decoder, start Event, cb *model.Codebook) error {
			return decodeElement(d, codesSpec, start, cb)
		},
		"Sets": one(&setsSpec, func(cb *model.Codebook) **model.Sets { return &cb.Sets }),
	})
	codesSpec = element(nil, children[model.Codebook]{
		"Code": func(d *decoder, start Event, cb *model.Codebook) error {
			return d.code(start, &cb.Codes)
		},
	})
	codeSpec = element(attrs[model.Code]{
		"guid":      required(idAttr(func(c *model.Code) *uuid.UUID { return &c.ID })),
		"name":      required(str(func(c *model.Code) *string { return &c.Name })),
		"isCodable": required(boolean(func(c *model.Code) *bool { return &c.IsCodable })),
		"color":     optColor(func(c *model.Code) **model.Color { return &c.Color }),
	}, children[model.Code]{
		"Description": text(func(c *model.Code) **string { return &c.Description }),
		"NoteRef":     refs(model.KindNote, func(c *model.Code) *[]model.Ref { return &c.NoteRefs }),
		"Code": func(d *decoder, start Event, c *model.Code) error {
			return d.code(start, &c.Children)
		},
	})

	codingSpec = element(attrs[model.Coding]{
		"guid":             required(idAttr(func(c *model.Coding) *uuid.UUID { return &c.ID })),
		"creatingUser":     optID(func(c *model.Coding) **uuid.UUID { return &c.CreatingUser }),
		"creationDateTime": optTime(func(c *model.Coding) **time.Time { return &c.CreationTime }),
	}, children[model.Coding]{
		"CodeRef": exactRef(model.KindCode, func(c *model.Coding) *model.Ref { return &c.CodeRef }),
		"NoteRef": refs(model.KindNote, func(c *model.Coding) *[]model.Ref { return &c.NoteRefs }),
	}).withCheck(func(c *model.Coding) error {
		if c.CodeRef.Kind == model.KindAny {
			return fmt.Errorf("element <Coding> requires a <CodeRef> child")
		}
		return nil
	})
}

func sourceAttrs[T any](h func(*T) *model.SourceHeader) attrs[T] {
	return attrs[T]{
		"guid":             required(idAttr(func(v *T) *uuid.UUID { return &h(v).ID })),
		"name":             optStr(func(v *T) **string { return &h(v).Name }),
		"creatingUser":     optID(func(v *T) **uuid.UUID { return &h(v).CreatingUser }),
		"creationDateTime": optTime(func(v *T) **time.Time { return &h(v).CreationTime }),
		"modifyingUser":    optID(func(v *T) **uuid.UUID { return &h(v).ModifyingUser }),
		"modifiedDateTime": optTime(func(v *T) **time.Time { return &h(v).ModifiedTime }),
	}
}

func sourceChildren[T any](h func(*T) *model.SourceHeader) children[T] {
	return children[T]{
		"Description":   text(func(v *T) **string { return &h(v).Description }),
		"Coding":        many(&codingSpec, func(v *T) *[]model.Coding { return &h(v).Codings }),
		"NoteRef":       refs(model.KindNote, func(v *T) *[]model.Ref { return &h(v).NoteRefs }),
		"VariableValue": variableValues(func(v *T) *[]model.VariableValue { return &h(v).VariableValues }),
	}
}

func mediaAttrs[T any](path, current func(*T) **string) attrs[T] {
	return attrs[T]{
		"path":        optStr(path),
		"currentPath": optStr(current),
	}
}

func initSources() {
	sourcesSpec = element(nil, children[model.Sources]{
		"TextSource": variant(&textSourceSpec, func(s *model.TextSource) model.Source {
			return model.Source{Kind: model.SourceText, Text: s}
		}),
		"PictureSource": variant(&pictureSpec, func(s *model.PictureSource) model.Source {
			return model.Source{Kind: model.SourcePicture, Picture: s}
		}),
		"PDFSource": variant(&pdfSpec, func(s *model.PDFSource) model.Source {
			return model.Source{Kind: model.SourcePDF, PDF: s}
		}),
		"AudioSource": variant(&audioSpec, func(s *model.AudioSource) model.Source {
			return model.Source{Kind: model.SourceAudio, Audio: s}
		}),
		"VideoSource": variant(&videoSpec, func(s *model.VideoSource) model.Source {
			return model.Source{Kind: model.SourceVideo, Video: s}
		}),
	})

	textHeader := func(s *model.TextSource) *model.SourceHeader { return &s.SourceHeader }
	textSourceSpec = element(
		merge(sourceAttrs(textHeader), attrs[model.TextSource]{
			"richTextPath":  optStr(func(s *model.TextSource) **string { return &s.RichTextPath }),
			"plainTextPath": optStr(func(s *model.TextSource) **string { return &s.PlainTextPath }),
		}),
		merge(sourceChildren(textHeader), children[model.TextSource]{
			"PlainTextContent": text(func(s *model.TextSource) **string { return &s.PlainTextContent }),
			"PlainTextSelection": many(&plainTextSelectionSpec, func(s *model.TextSource) *[]model.PlainTextSelection {
				return &s.Selections
			}),
		}),
	)

	pictureHeader := func(s *model.PictureSource) *model.SourceHeader { return &s.SourceHeader }
	pictureSpec = element(
		merge(sourceAttrs(pictureHeader), mediaAttrs(
			func(s *model.PictureSource) **string { return &s.Path },
			func(s *model.PictureSource) **string { return &s.CurrentPath },
		)),
		merge(sourceChildren(pictureHeader), children[model.PictureSource]{
			"TextSource": one(&textSourceSpec, func(s *model.PictureSource) **model.TextSource { return &s.TextRepresentation }),
			"PictureSelection": many(&pictureSelectionSpec, func(s *model.PictureSource) *[]model.PictureSelection {
				return &s.Selections
			}),
		}),
	)

	pdfHeader := func(s *model.PDFSource) *model.SourceHeader { return &s.SourceHeader }
	pdfSpec = element(
		merge(sourceAttrs(pdfHeader), mediaAttrs(
			func(s *model.PDFSource) **string { return &s.Path },
			func(s *model.PDFSource) **string { return &s.CurrentPath },
		)),
		merge(sourceChildren(pdfHeader), children[model.PDFSource]{
			"Representation": one(&textSourceSpec, func(s *model.PDFSource) **model.TextSource { return &s.Representation }),
			"PDFSelection": many(&pdfSelectionSpec, func(s *model.PDFSource) *[]model.PDFSelection {
				return &s.Selections
			}),
		}),
	)

	audioHeader := func(s *model.AudioSource) *model.SourceHeader { return &s.SourceHeader }
	audioSpec = element(
		merge(sourceAttrs(audioHeader), mediaAttrs(
			func(s *model.AudioSource) **string { return &s.Path },
			func(s *model.AudioSource) **string { return &s.CurrentPath },
		)),
		merge(sourceChildren(audioHeader), children[model.AudioSource]{
			"Transcript": many(&transcriptSpec, func(s *model.AudioSource) *[]model.Transcript { return &s.Transcripts }),
			"AudioSelection": many(&audioSelectionSpec, func(s *model.AudioSource) *[]model.AudioSelection {
				return &s.Selections
			}),
		}),
	)

	videoHeader := func(s *model.VideoSource) *model.SourceHeader { return &s.SourceHeader }
	videoSpec = element(
		merge(sourceAttrs(videoHeader), mediaAttrs(
			func(s *model.VideoSource) **string { return &s.Path },
			func(s *model.VideoSource) **string { return &s.CurrentPath },
		)),
		merge(sourceChildren(videoHeader), children[model.VideoSource]{
			"Transcript": many(&transcriptSpec, func(s *model.VideoSource) *[]model.Transcript { return &s.Transcripts }),
			"VideoSelection": many(&videoSelectionSpec, func(s *model.VideoSource) *[]model.VideoSelection {
				return &s.Selections
			}),
		}),
	)

	transcriptSpec = element(attrs[model.Transcript]{
		"guid":             required(idAttr(func(t *model.Transcript) *uuid.UUID { return &t.ID })),
		"name":             optStr(func(t *model.Transcript) **string { return &t.Name }),
		"richTextPath":     optStr(func(t *model.Transcript) **string { return &t.RichTextPath }),
		"plainTextPath":    optStr(func(t *model.Transcript) **string { return &t.PlainTextPath }),
		"creatingUser":     optID(func(t *model.Transcript) **uuid.UUID { return &t.CreatingUser }),
		"creationDateTime": optTime(func(t *model.Transcript) **time.Time { return &t.CreationTime }),
		"modifyingUser":    optID(func(t *model.Transcript) **uuid.UUID { return &t.ModifyingUser }),
		"modifiedDateTime": optTime(func(t *model.Transcript) **time.Time { return &t.ModifiedTime }),
	}, children[model.Transcript]{
		"Description":      text(func(t *model.Transcript) **string { return &t.Description }),
		"PlainTextContent": text(func(t *model.Transcript) **string { return &t.PlainTextContent }),
		"SyncPoint":        many(&syncPointSpec, func(t *model.Transcript) *[]model.SyncPoint { return &t.SyncPoints }),
		"TranscriptSelection": many(&transcriptSelectionSpec, func(t *model.Transcript) *[]model.TranscriptSelection {
			return &t.Selections
		}),
		"NoteRef": refs(model.KindNote, func(t *model.Transcript) *[]model.Ref { return &t.NoteRefs }),
	})

	syncPointSpec = element(attrs[model.SyncPoint]{
		"guid":      required(idAttr(func(s *model.SyncPoint) *uuid.UUID { return &s.ID })),
		"timeStamp": optUnsigned(func(s *model.SyncPoint) **uint64 { return &s.TimeStamp }),
		"position":  optUnsigned(func(s *model.SyncPoint) **uint64 { return &s.Position }),
	}, nil)
}

func selectionAttrs[T any](h func(*T) *model.SelectionHeader) attrs[T] {
	return attrs[T]{
		"guid":             required(idAttr(func(v *T) *uuid.UUID { return &h(v).ID })),
		"name":             optStr(func(v *T) **string { return &h(v).Name }),
		"creatingUser":     optID(func(v *T) **uuid.UUID { return &h(v).CreatingUser }),
		"creationDateTime": optTime(func(v *T) **time.Time { return &h(v).CreationTime }),
		"modifyingUser":    optID(func(v *T) **uuid.UUID { return &h(v).ModifyingUser }),
		"modifiedDateTime": optTime(func(v *T) **time.Time { return &h(v).ModifiedTime }),
	}
}

func selectionChildren[T any](h func(*T) *model.SelectionHeader) children[T] {
	return children[T]{
		"Description": text(func(v *T) **string { return &h(v).Description }),
		"Coding":      many(&codingSpec, func(v *T) *[]model.Coding { return &h(v).Codings }),
		"NoteRef":     refs(model.KindNote, func(v *T) *[]model.Ref { return &h(v).NoteRefs }),
	}
}

func boxAttrs[T any](b func(*T) *model.Box) attrs[T] {
	return attrs[T]{
		"firstX":  required(unsigned(func(v *T) *uint64 { return &b(v).FirstX })),
		"firstY":  required(unsigned(func(v *T) *uint64 { return &b(v).FirstY })),
		"secondX": required(unsigned(func(v *T) *uint64 { return &b(v).SecondX })),
		"secondY": required(unsigned(func(v *T) *uint64 { return &b(v).SecondY })),
	}
}

func checkBox(b *model.Box) error {
	if err := ordered("x range", b.FirstX, b.SecondX); err != nil {
		return err
	}
	return ordered("y range", b.FirstY, b.SecondY)
}

func timeRangeAttrs[T any](r func(*T) *model.TimeRange) attrs[T] {
	return attrs[T]{
		"begin": required(unsigned(func(v *T) *uint64 { return &r(v).Begin })),
		"end":   required(unsigned(func(v *T) *uint64 { return &r(v).End })),
	}
}

func initSelections() {
	ptHeader := func(s *model.PlainTextSelection) *model.SelectionHeader { return &s.SelectionHeader }
	plainTextSelectionSpec = element(
		merge(selectionAttrs(ptHeader), attrs[model.PlainTextSelection]{
			"startPosition": required(unsigned(func(s *model.PlainTextSelection) *uint64 { return &s.Start })),
			"endPosition":   required(unsigned(func(s *model.PlainTextSelection) *uint64 { return &s.End })),
		}),
		selectionChildren(ptHeader),
	).withCheck(func(s *model.PlainTextSelection) error {
		return ordered("text range", s.Start, s.End)
	})

	picHeader := func(s *model.PictureSelection) *model.SelectionHeader { return &s.SelectionHeader }
	pictureSelectionSpec = element(
		merge(selectionAttrs(picHeader), boxAttrs(func(s *model.PictureSelection) *model.Box { return &s.Box })),
		selectionChildren(picHeader),
	).withCheck(func(s *model.PictureSelection) error { return checkBox(&s.Box) })

	pdfHeader := func(s *model.PDFSelection) *model.SelectionHeader { return &s.SelectionHeader }
	pdfSelectionSpec = element(
		merge(selectionAttrs(pdfHeader),
			boxAttrs(func(s *model.PDFSelection) *model.Box { return &s.Box }),
			attrs[model.PDFSelection]{
				"page": required(unsigned(func(s *model.PDFSelection) *uint32 { return &s.Page })),
			}),
		merge(selectionChildren(pdfHeader), children[model.PDFSelection]{
			"Representation": one(&textSourceSpec, func(s *model.PDFSelection) **model.TextSource { return &s.Representation }),
		}),
	).withCheck(func(s *model.PDFSelection) error { return checkBox(&s.Box) })

	audioHeader := func(s *model.AudioSelection) *model.SelectionHeader { return &s.SelectionHeader }
	audioSelectionSpec = element(
		merge(selectionAttrs(audioHeader), timeRangeAttrs(func(s *model.AudioSelection) *model.TimeRange { return &s.TimeRange })),
		selectionChildren(audioHeader),
	).withCheck(func(s *model.AudioSelection) error { return ordered("time range", s.Begin, s.End) })

	videoHeader := func(s *model.VideoSelection) *model.SelectionHeader { return &s.SelectionHeader }
	videoSelectionSpec = element(
		merge(selectionAttrs(videoHeader), timeRangeAttrs(func(s *model.VideoSelection) *model.TimeRange { return &s.TimeRange })),
		selectionChildren(videoHeader),
	).withCheck(func(s *model.VideoSelection) error { return ordered("time range", s.Begin, s.End) })

	trHeader := func(s *model.TranscriptSelection) *model.SelectionHeader { return &s.SelectionHeader }
	transcriptSelectionSpec = element(
		merge(selectionAttrs(trHeader), attrs[model.TranscriptSelection]{
			"fromSyncPoint": required(optRef(model.KindSyncPoint, func(s *model.TranscriptSelection) **model.Ref { return &s.FromSyncPoint })),
			"toSyncPoint":   required(optRef(model.KindSyncPoint, func(s *model.TranscriptSelection) **model.Ref { return &s.ToSyncPoint })),
		}),
		selectionChildren(trHeader),
	)
}

func initCollections() {
	variablesSpec = element(nil, children[model.Variables]{
		"Variable": many(&variableSpec, func(v *model.Variables) *[]model.Variable { return &v.Items }),
	})
	variableSpec = element(attrs[model.Variable]{
		"guid":           required(idAttr(func(v *model.Variable) *uuid.UUID { return &v.ID })),
		"name":           required(str(func(v *model.Variable) *string { return &v.Name })),
		"typeOfVariable": required(variableType(func(v *model.Variable) *model.VariableType { return &v.Type })),
	}, children[model.Variable]{
		"Description": text(func(v *model.Variable) **string { return &v.Description }),
	})

	variableValueSpec = element(nil, children[variableValue]{
		"VariableRef": exactRef(model.KindVariable, func(vv *variableValue) *model.Ref { return &vv.VariableRef }),
		"TextValue": value(model.VariableText, func(raw string, val *model.Value) error {
			val.Text = raw
			return nil
		}),
		"BooleanValue": value(model.VariableBoolean, func(raw string, val *model.Value) (err error) {
			val.Bool, err = codec.ParseBool(strings.TrimSpace(raw))
			return err
		}),
		"IntegerValue": value(model.VariableInteger, func(raw string, val *model.Value) (err error) {
			val.Int, err = codec.ParseInt(strings.TrimSpace(raw), 64)
			return err
		}),
		"FloatValue": value(model.VariableFloat, func(raw string, val *model.Value) (err error) {
			val.Float, err = codec.ParseFloat(strings.TrimSpace(raw))
			return err
		}),
		"DateValue": value(model.VariableDate, func(raw string, val *model.Value) (err error) {
			val.Time, err = codec.ParseDate(strings.TrimSpace(raw))
			return err
		}),
		"DateTimeValue": value(model.VariableDateTime, func(raw string, val *model.Value) (err error) {
			val.Time, err = codec.ParseTimestamp(strings.TrimSpace(raw))
			return err
		}),
	}).withCheck(func(vv *variableValue) error {
		if vv.VariableRef.Kind == model.KindAny {
			return fmt.Errorf("element <VariableValue> requires a <VariableRef> child")
		}
		if !vv.hasValue {
			return fmt.Errorf("element <VariableValue> requires a value")
		}
		return nil
	})

	casesSpec = element(nil, children[model.Cases]{
		"Case": many(&caseSpec, func(c *model.Cases) *[]model.Case { return &c.Items }),
	})
	caseSpec = element(attrs[model.Case]{
		"guid": required(idAttr(func(c *model.Case) *uuid.UUID { return &c.ID })),
		"name": optStr(func(c *model.Case) **string { return &c.Name }),
	}, children[model.Case]{
		"Description":   text(func(c *model.Case) **string { return &c.Description }),
		"CodeRef":       refs(model.KindCode, func(c *model.Case) *[]model.Ref { return &c.CodeRefs }),
		"VariableValue": variableValues(func(c *model.Case) *[]model.VariableValue { return &c.VariableValues }),
		"SourceRef":     refs(model.KindSource, func(c *model.Case) *[]model.Ref { return &c.SourceRefs }),
		"SelectionRef":  refs(model.KindSelection, func(c *model.Case) *[]model.Ref { return &c.SelectionRefs }),
	})

	setsSpec = element(nil, children[model.Sets]{
		"Set": many(&setSpec, func(s *model.Sets) *[]model.Set { return &s.Items }),
	})
	setSpec = element(attrs[model.Set]{
		"guid": required(idAttr(func(s *model.Set) *uuid.UUID { return &s.ID })),
		"name": required(str(func(s *model.Set) *string { return &s.Name })),
	}, children[model.Set]{
		"Description":  text(func(s *model.Set) **string { return &s.Description }),
		"MemberCode":   refs(model.KindCode, func(s *model.Set) *[]model.Ref { return &s.MemberCodes }),
		"MemberSource": refs(model.KindSource, func(s *model.Set) *[]model.Ref { return &s.MemberSources }),
		"MemberNote":   refs(model.KindNote, func(s *model.Set) *[]model.Ref { return &s.MemberNotes }),
	})

	linksSpec = element(nil, children[model.Links]{
		"Link": many(&linkSpec, func(l *model.Links) *[]model.Link { return &l.Items }),
	})
	linkSpec = element(attrs[model.Link]{
		"guid": required(idAttr(func(l *model.Link) *uuid.UUID { return &l.ID })),
		"name": optStr(func(l *model.Link) **string { return &l.Name }),
		"direction": optEnum(func(l *model.Link) **model.Direction { return &l.Direction },
			model.DirectionAssociative, model.DirectionOneWay, model.DirectionBidirectional),
		"color":      optColor(func(l *model.Link) **model.Color { return &l.Color }),
		"originGUID": optRef(model.KindAny, func(l *model.Link) **model.Ref { return &l.Origin }),
		"targetGUID": optRef(model.KindAny, func(l *model.Link) **model.Ref { return &l.Target }),
	}, children[model.Link]{
		"NoteRef": refs(model.KindNote, func(l *model.Link) *[]model.Ref { return &l.NoteRefs }),
	})

	graphsSpec = element(nil, children[model.Graphs]{
		"Graph": many(&graphSpec, func(g *model.Graphs) *[]model.Graph { return &g.Items }),
	})
	graphSpec = element(attrs[model.Graph]{
		"guid": required(idAttr(func(g *model.Graph) *uuid.UUID { return &g.ID })),
		"name": optStr(func(g *model.Graph) **string { return &g.Name }),
	}, children[model.Graph]{
		"Vertex": many(&vertexSpec, func(g *model.Graph) *[]model.Vertex { return &g.Vertices }),
		"Edge":   many(&edgeSpec, func(g *model.Graph) *[]model.Edge { return &g.Edges }),
	})
	vertexSpec = element(attrs[model.Vertex]{
		"guid":            required(idAttr(func(v *model.Vertex) *uuid.UUID { return &v.ID })),
		"representedGUID": optRef(model.KindAny, func(v *model.Vertex) **model.Ref { return &v.Represented }),
		"name":            optStr(func(v *model.Vertex) **string { return &v.Name }),
		"firstX":          required(unsigned(func(v *model.Vertex) *uint64 { return &v.FirstX })),
		"firstY":          required(unsigned(func(v *model.Vertex) *uint64 { return &v.FirstY })),
		"secondX":         optUnsigned(func(v *model.Vertex) **uint64 { return &v.SecondX }),
		"secondY":         optUnsigned(func(v *model.Vertex) **uint64 { return &v.SecondY }),
		"shape": optEnum(func(v *model.Vertex) **model.Shape { return &v.Shape },
			model.ShapeRectangle, model.ShapeRoundedRectangle, model.ShapeEllipse, model.ShapeHexagon, model.ShapeTriangle),
		"color": optColor(func(v *model.Vertex) **model.Color { return &v.Color }),
	}, nil)
	edgeSpec = element(attrs[model.Edge]{
		"guid":            required(idAttr(func(e *model.Edge) *uuid.UUID { return &e.ID })),
		"representedGUID": optRef(model.KindAny, func(e *model.Edge) **model.Ref { return &e.Represented }),
		"name":            optStr(func(e *model.Edge) **string { return &e.Name }),
		"sourceVertex":    required(refAttr(model.KindVertex, func(e *model.Edge) *model.Ref { return &e.SourceVertex })),
		"targetVertex":    required(refAttr(model.KindVertex, func(e *model.Edge) *model.Ref { return &e.TargetVertex })),
		"color":           optColor(func(e *model.Edge) **model.Color { return &e.Color }),
		"direction": optEnum(func(e *model.Edge) **model.Direction { return &e.Direction },
			model.DirectionAssociative, model.DirectionOneWay, model.DirectionBidirectional),
		"lineStyle": optEnum(func(e *model.Edge) **model.LineStyle { return &e.LineStyle },
			model.LineDotted, model.LineDashed, model.LineSolid),
	}, nil)

	notesSpec = element(nil, children[model.Notes]{
		"Note": many(&textSourceSpec, func(n *model.Notes) *[]model.TextSource { return &n.Items }),
	})
}
