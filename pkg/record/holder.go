package record

// HolderKind distinguishes natural persons from institutions.
type HolderKind int

const (
	// HolderUnknown is the zero value, used by placeholder records.
	HolderUnknown HolderKind = iota
	// HolderPerson is a natural person with a derived short name.
	HolderPerson
	// HolderInstitution is an organization identified by a tax-id marker.
	HolderInstitution
)

// InstitutionLabel is the short name reported for every institution.
const InstitutionLabel = "Institution"

// String returns the kind name.
func (k HolderKind) String() string {
	switch k {
	case HolderPerson:
		return "person"
	case HolderInstitution:
		return "institution"
	default:
		return "unknown"
	}
}

// Holder identifies the owner. Only persons carry their own short name.
type Holder struct {
	Kind HolderKind
	name string
}

// Person returns a natural-person holder with the given short name.
func Person(shortName string) Holder {
	return Holder{Kind: HolderPerson, name: shortName}
}

// Institution returns an organization holder.
func Institution() Holder {
	return Holder{Kind: HolderInstitution}
}

// ShortName returns the short owner name, or the null sentinel for an
// unknown holder.
func (h Holder) ShortName() Text {
	switch h.Kind {
	case HolderPerson:
		return Some(h.name)
	case HolderInstitution:
		return Some(InstitutionLabel)
	default:
		return Null
	}
}

// HolderFromShortName rebuilds a holder from its exported short name.
func HolderFromShortName(short Text) Holder {
	switch {
	case short.IsNull():
		return Holder{}
	case short.String == InstitutionLabel:
		return Institution()
	default:
		return Person(short.String)
	}
}
