// Package extract maps one raw protein record onto the fixed annotation
// slots used by the consistency aggregator.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/text/unicode/norm"

	"github.com/hejijunhao/candidates/internal/model"
)

// ErrMalformedRecord is wrapped by every ShapeError.
var ErrMalformedRecord = errors.New("malformed record")

// ShapeError reports a record whose structure cannot be read. Callers treat
// it as fatal to the run.
type ShapeError struct {
	Accession string
	Comment   int    // index into the comments array, -1 when not a comment
	Type      string // comment type, if known
	Reason    string
}

func (e *ShapeError) Error() string {
	if e.Comment < 0 {
		return fmt.Sprintf("extract: record %q: %s", e.Accession, e.Reason)
	}
	return fmt.Sprintf("extract: record %q: comment %d (%s): %s", e.Accession, e.Comment, e.Type, e.Reason)
}

func (e *ShapeError) Unwrap() error { return ErrMalformedRecord }

// ExcludedKeywords are never copied into SPKW.
var ExcludedKeywords = map[string]bool{
	"Complete proteome": true,
}

const noXref = "None"

// Record extracts the annotation slots from one raw record. Absent fields
// leave their slot empty. Only an unreadable comment or invalid JSON is an
// error.
func Record(raw model.RawRecord) (model.AnnotationRecord, error) {
	if !gjson.ValidBytes(raw) {
		return model.AnnotationRecord{}, &ShapeError{Comment: -1, Reason: "invalid JSON"}
	}
	root := gjson.ParseBytes(raw)
	rec := model.NewAnnotationRecord(root.Get("accession").String())

	rec.SPOC = appendValues(rec.SPOC, root.Get("organism.lineage"), "")

	names := root.Get("protein.recommendedName")
	rec.DERF = nfc(names.Get("fullName.value").String())
	rec.DERS = appendValues(rec.DERS, names.Get("shortName"), "value")
	rec.DEEC = appendValues(rec.DEEC, names.Get("ecNumber"), "value")
	rec.DEAF = appendValues(rec.DEAF, root.Get("protein.alternativeName"), "fullName.value")

	// Only the first gene is considered.
	rec.GNNM = nfc(root.Get("gene.0.name.value").String())

	if err := collectComments(&rec, root.Get("comments")); err != nil {
		return model.AnnotationRecord{}, err
	}

	root.Get("keywords").ForEach(func(_, kw gjson.Result) bool {
		v := nfc(kw.Get("value").String())
		if v != "" && !ExcludedKeywords[v] {
			rec.SPKW = append(rec.SPKW, v)
		}
		return true
	})

	return rec, nil
}

// appendValues appends the string at path of every element of arr. An empty
// path takes the element itself. Elements without the path are skipped.
func appendValues(dst []string, arr gjson.Result, path string) []string {
	arr.ForEach(func(_, item gjson.Result) bool {
		v := item
		if path != "" {
			v = item.Get(path)
		}
		if v.Exists() {
			dst = append(dst, nfc(v.String()))
		}
		return true
	})
	return dst
}

func nfc(s string) string {
	return norm.NFC.String(s)
}

func collectComments(rec *model.AnnotationRecord, comments gjson.Result) error {
	if !comments.Exists() {
		return nil
	}
	if !comments.IsArray() {
		return &ShapeError{Accession: rec.Accession, Comment: -1, Reason: "comments is not a list"}
	}
	for i, c := range comments.Array() {
		ctype := c.Get("type").String()
		if err := collectComment(rec, ctype, c); err != nil {
			return &ShapeError{Accession: rec.Accession, Comment: i, Type: ctype, Reason: err.Error()}
		}
	}
	return nil
}

func collectComment(rec *model.AnnotationRecord, ctype string, c gjson.Result) error {
	var err error
	switch ctype {
	case "":
		return errors.New("missing type")

	case "CATALYTIC_ACTIVITY":
		name := c.Get("reaction.name")
		if !name.Exists() {
			return errors.New("missing reaction name")
		}
		rhea := noXref
		if id := c.Get(`reaction.dbReferences.#(type=="Rhea").id`); id.Exists() {
			rhea = id.String()
		}
		rec.CCCA = append(rec.CCCA, rhea+" "+nfc(name.String()))

	case "COFACTOR":
		for _, cf := range c.Get("cofactors").Array() {
			name := cf.Get("name")
			if !name.Exists() {
				return errors.New("cofactor without name")
			}
			chebi := noXref
			if cf.Get("dbReference.type").String() == "CHEBI" {
				chebi = cf.Get("dbReference.id").String()
			}
			rec.CCCO = append(rec.CCCO, chebi+" "+nfc(name.String()))
		}
		if c.Get("text").Exists() {
			rec.CCCO, err = appendText(rec.CCCO, c)
		}

	case "FUNCTION":
		var texts []string
		if texts, err = appendText(nil, c); err == nil {
			for _, t := range texts {
				rec.CCFU = append(rec.CCFU, strings.Split(t, ". ")...)
			}
		}

	case "SUBCELLULAR_LOCATION":
		for _, loc := range c.Get("locations").Array() {
			v := loc.Get("location.value")
			if !v.Exists() {
				return errors.New("location without value")
			}
			rec.CCLO = append(rec.CCLO, nfc(v.String()))
		}
		if c.Get("text").Exists() {
			rec.CCLO, err = appendText(rec.CCLO, c)
		}

	case "PATHWAY":
		rec.CCPA, err = appendText(rec.CCPA, c)
	case "SIMILARITY":
		rec.CCSI, err = appendText(rec.CCSI, c)
	case "SUBUNIT":
		rec.CCSU, err = appendText(rec.CCSU, c)
	}
	return err
}

// appendText appends the value of every element of the comment's text list.
func appendText(dst []string, c gjson.Result) ([]string, error) {
	text := c.Get("text")
	if !text.IsArray() {
		return dst, errors.New("text is not a list")
	}
	for _, t := range text.Array() {
		v := t.Get("value")
		if !v.Exists() {
			return dst, errors.New("text without value")
		}
		dst = append(dst, nfc(v.String()))
	}
	return dst, nil
}
