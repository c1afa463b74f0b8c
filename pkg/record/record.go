// Package record defines the ownership record produced for every apartment
// unit and co-owner found in a cadastral ownership list.
package record

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Text is an optional text value. The zero value is the null sentinel used
// for fields that could not be parsed.
type Text struct {
	String string
	Valid  bool
}

// Null is the null sentinel.
var Null = Text{}

// Some wraps s as a present value. An empty string is still present.
func Some(s string) Text {
	return Text{String: s, Valid: true}
}

// IsNull reports whether t is the null sentinel.
func (t Text) IsNull() bool {
	return !t.Valid
}

// OrEmpty returns the text, or "" for the null sentinel.
func (t Text) OrEmpty() string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// MarshalJSON encodes the null sentinel as JSON null.
func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.String)
}

// UnmarshalJSON decodes JSON null into the null sentinel.
func (t *Text) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Null
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding text: %w", err)
	}
	*t = Some(s)
	return nil
}

// Value implements driver.Valuer so the null sentinel is stored as NULL.
func (t Text) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.String, nil
}

// Scan implements sql.Scanner.
func (t *Text) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = Null
	case string:
		*t = Some(v)
	case []byte:
		*t = Some(string(v))
	default:
		return fmt.Errorf("cannot scan %T into record.Text", src)
	}
	return nil
}

// Field names in export order.
const (
	FieldEntranceAddress    = "entrance_address"
	FieldFloor              = "floor"
	FieldUnitNumber         = "unit_number"
	FieldSpaceShare         = "space_share"
	FieldRegistrationNumber = "registration_number"
	FieldOtherInfo1         = "other_info_1"
	FieldSequenceNumber     = "sequence_number"
	FieldOwnerShortName     = "owner_short_name"
	FieldOwnerFullName      = "owner_full_name"
	FieldOwnershipShare     = "ownership_share"
	FieldAcquisitionTitle   = "acquisition_title"
	FieldOtherInfo2         = "other_info_2"
)

// Fields lists every record field in the fixed export order.
var Fields = []string{
	FieldEntranceAddress,
	FieldFloor,
	FieldUnitNumber,
	FieldSpaceShare,
	FieldRegistrationNumber,
	FieldOtherInfo1,
	FieldSequenceNumber,
	FieldOwnerShortName,
	FieldOwnerFullName,
	FieldOwnershipShare,
	FieldAcquisitionTitle,
	FieldOtherInfo2,
}

// Unit holds the horizontal fields shared by all co-owners of one unit.
type Unit struct {
	EntranceAddress    Text `json:"entrance_address"`
	Floor              Text `json:"floor"`
	UnitNumber         Text `json:"unit_number"`
	SpaceShare         Text `json:"space_share"`
	RegistrationNumber Text `json:"registration_number"`
	OtherInfo1         Text `json:"other_info_1"`
}

// Owner holds the vertical fields of one co-owner.
type Owner struct {
	SequenceNumber   Text   `json:"sequence_number"`
	Holder           Holder `json:"-"`
	FullName         Text   `json:"owner_full_name"`
	Share            Text   `json:"ownership_share"`
	AcquisitionTitle Text   `json:"acquisition_title"`
	OtherInfo2       Text   `json:"other_info_2"`
}

// Record is one row of output: a unit and one of its owners. Records are
// plain values; copying one never aliases another's fields.
type Record struct {
	Unit  Unit
	Owner Owner
}

// Placeholder returns the record emitted for a unit whose owners could not
// be parsed. Every owner field is the null sentinel.
func Placeholder(unit Unit) Record {
	return Record{Unit: unit}
}

// HasOwner reports whether any owner field is populated.
func (r Record) HasOwner() bool {
	for _, v := range r.ownerValues() {
		if v.Valid {
			return true
		}
	}
	return false
}

// Get returns the value of the named field. Unknown names report false.
func (r Record) Get(name string) (Text, bool) {
	switch name {
	case FieldEntranceAddress:
		return r.Unit.EntranceAddress, true
	case FieldFloor:
		return r.Unit.Floor, true
	case FieldUnitNumber:
		return r.Unit.UnitNumber, true
	case FieldSpaceShare:
		return r.Unit.SpaceShare, true
	case FieldRegistrationNumber:
		return r.Unit.RegistrationNumber, true
	case FieldOtherInfo1:
		return r.Unit.OtherInfo1, true
	case FieldSequenceNumber:
		return r.Owner.SequenceNumber, true
	case FieldOwnerShortName:
		return r.Owner.Holder.ShortName(), true
	case FieldOwnerFullName:
		return r.Owner.FullName, true
	case FieldOwnershipShare:
		return r.Owner.Share, true
	case FieldAcquisitionTitle:
		return r.Owner.AcquisitionTitle, true
	case FieldOtherInfo2:
		return r.Owner.OtherInfo2, true
	}
	return Null, false
}

// Values returns the field values in the order of Fields.
func (r Record) Values() []Text {
	values := make([]Text, 0, len(Fields))
	values = append(values,
		r.Unit.EntranceAddress,
		r.Unit.Floor,
		r.Unit.UnitNumber,
		r.Unit.SpaceShare,
		r.Unit.RegistrationNumber,
		r.Unit.OtherInfo1,
	)
	return append(values, r.ownerValues()...)
}

func (r Record) ownerValues() []Text {
	return []Text{
		r.Owner.SequenceNumber,
		r.Owner.Holder.ShortName(),
		r.Owner.FullName,
		r.Owner.Share,
		r.Owner.AcquisitionTitle,
		r.Owner.OtherInfo2,
	}
}

// Map returns the record as a field-name keyed mapping.
func (r Record) Map() map[string]Text {
	m := make(map[string]Text, len(Fields))
	for i, v := range r.Values() {
		m[Fields[i]] = v
	}
	return m
}

// MarshalJSON encodes the record as a flat object keyed by field name.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// FromValues rebuilds a record from values in the order of Fields.
func FromValues(values []Text) (Record, error) {
	if len(values) != len(Fields) {
		return Record{}, fmt.Errorf("want %d field values, got %d", len(Fields), len(values))
	}
	return Record{
		Unit: Unit{
			EntranceAddress:    values[0],
			Floor:              values[1],
			UnitNumber:         values[2],
			SpaceShare:         values[3],
			RegistrationNumber: values[4],
			OtherInfo1:         values[5],
		},
		Owner: Owner{
			SequenceNumber:   values[6],
			Holder:           HolderFromShortName(values[7]),
			FullName:         values[8],
			Share:            values[9],
			AcquisitionTitle: values[10],
			OtherInfo2:       values[11],
		},
	}, nil
}
