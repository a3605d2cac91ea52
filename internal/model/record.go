package model

// RawRecord is one record as returned by the remote service: the raw JSON
// object bytes. Its schema is owned by the service.
type RawRecord []byte

// Field is a two-letter-prefixed annotation code used in reports.
type Field string

const (
	FieldDERF Field = "DERF" // recommended full name
	FieldGNNM Field = "GNNM" // first gene name
	FieldSPOC Field = "SPOC" // organism lineage
	FieldDERS Field = "DERS" // recommended short names
	FieldDEEC Field = "DEEC" // EC numbers
	FieldDEAF Field = "DEAF" // alternative full names
	FieldCCCA Field = "CCCA" // catalytic activity
	FieldCCCO Field = "CCCO" // cofactor
	FieldCCFU Field = "CCFU" // function
	FieldCCLO Field = "CCLO" // subcellular location
	FieldCCPA Field = "CCPA" // pathway
	FieldCCSI Field = "CCSI" // similarity
	FieldCCSU Field = "CCSU" // subunit
	FieldSPKW Field = "SPKW" // keywords
)

// ScalarFields are the single-valued annotation slots that take part in
// consistency testing, in report order.
var ScalarFields = []Field{FieldDERF, FieldGNNM}

// ListFields are the list-valued annotation slots that take part in
// consistency testing, in report order. SPOC is excluded: lineage is the
// grouping key, not an annotation.
var ListFields = []Field{
	FieldDERS, FieldDEEC, FieldDEAF, FieldCCFU, FieldCCLO,
	FieldCCPA, FieldCCSI, FieldCCSU, FieldSPKW, FieldCCCO, FieldCCCA,
}

// AnnotationRecord is the fixed-shape annotation set extracted from one
// RawRecord. Empty strings and empty slices mean "absent".
type AnnotationRecord struct {
	Accession string
	DERF      string
	GNNM      string

	SPOC []string
	DERS []string
	DEEC []string
	DEAF []string
	CCCA []string
	CCCO []string
	CCFU []string
	CCLO []string
	CCPA []string
	CCSI []string
	CCSU []string
	SPKW []string
}

// NewAnnotationRecord returns a record with every slot present and empty.
func NewAnnotationRecord(accession string) AnnotationRecord {
	return AnnotationRecord{
		Accession: accession,
		SPOC:      []string{},
		DERS:      []string{},
		DEEC:      []string{},
		DEAF:      []string{},
		CCCA:      []string{},
		CCCO:      []string{},
		CCFU:      []string{},
		CCLO:      []string{},
		CCPA:      []string{},
		CCSI:      []string{},
		CCSU:      []string{},
		SPKW:      []string{},
	}
}

// Scalar returns the value of a scalar field, or "" for list fields.
func (r *AnnotationRecord) Scalar(f Field) string {
	switch f {
	case FieldDERF:
		return r.DERF
	case FieldGNNM:
		return r.GNNM
	}
	return ""
}

// List returns the values of a list field, or nil for scalar fields.
func (r *AnnotationRecord) List(f Field) []string {
	switch f {
	case FieldSPOC:
		return r.SPOC
	case FieldDERS:
		return r.DERS
	case FieldDEEC:
		return r.DEEC
	case FieldDEAF:
		return r.DEAF
	case FieldCCCA:
		return r.CCCA
	case FieldCCCO:
		return r.CCCO
	case FieldCCFU:
		return r.CCFU
	case FieldCCLO:
		return r.CCLO
	case FieldCCPA:
		return r.CCPA
	case FieldCCSI:
		return r.CCSI
	case FieldCCSU:
		return r.CCSU
	case FieldSPKW:
		return r.SPKW
	}
	return nil
}
