package language

import (
	"fmt"
	"strconv"
	"strings"
)

// NamespaceSeparator separates namespace segments in names.
const NamespaceSeparator = `\`

// GlobalNamespace is the root namespace.
const GlobalNamespace = `\`

// FQSEN is a fully qualified structural element name for a class, function
// or global constant. Two FQSENs are equal iff all fields are equal, so the
// value can be used directly as a map key.
type FQSEN struct {
	Namespace   string
	Name        string
	AlternateID int
}

// MemberFQSEN names an element that lives inside a class, such as a method
// or class constant.
type MemberFQSEN struct {
	Class FQSEN
	Name  string
}

// NewFQSEN builds an FQSEN, normalising the namespace to its leading
// separator form.
func NewFQSEN(namespace, name string) FQSEN {
	return FQSEN{Namespace: normalizeNamespace(namespace), Name: name}
}

// FromStringInContext canonicalises a class or function name as seen from
// ctx. Names starting with the separator are taken verbatim; names starting
// with the `namespace\` keyword and all other qualified or unqualified names
// are placed under the context namespace. Unqualified native type names
// resolve to the global namespace. It never fails: a name that does not
// exist simply produces an FQSEN that fails later lookups.
func FromStringInContext(name string, ctx Context) FQSEN {
	name, alt := splitAlternateID(strings.TrimSpace(name))

	var fq string
	switch {
	case strings.HasPrefix(name, NamespaceSeparator):
		fq = name
	case hasNamespaceKeyword(name):
		fq = joinNamespace(ctx.Namespace(), name[len("namespace\\"):])
	case !strings.Contains(name, NamespaceSeparator) && IsNativeTypeName(name):
		fq = NamespaceSeparator + name
	default:
		fq = joinNamespace(ctx.Namespace(), name)
	}

	f := fromFullyQualified(fq)
	f.AlternateID = alt
	return f
}

// ParseFQSEN reads the rendered form produced by String.
func ParseFQSEN(s string) (FQSEN, error) {
	s, alt := splitAlternateID(strings.TrimSpace(s))
	if !strings.HasPrefix(s, NamespaceSeparator) || len(s) == 1 {
		return FQSEN{}, fmt.Errorf("fqsen %q is not fully qualified", s)
	}
	f := fromFullyQualified(s)
	f.AlternateID = alt
	return f, nil
}

// Canonical lowercases the namespace and the name; class, function and
// namespace names are case-insensitive.
func (f FQSEN) Canonical() FQSEN {
	return FQSEN{
		Namespace:   strings.ToLower(f.Namespace),
		Name:        strings.ToLower(f.Name),
		AlternateID: f.AlternateID,
	}
}

func (f FQSEN) IsZero() bool {
	return f.Name == ""
}

func (f FQSEN) String() string {
	var b strings.Builder
	b.WriteString(f.Namespace)
	if f.Namespace != GlobalNamespace {
		b.WriteString(NamespaceSeparator)
	}
	b.WriteString(f.Name)
	if f.AlternateID != 0 {
		b.WriteString(",")
		b.WriteString(strconv.Itoa(f.AlternateID))
	}
	return b.String()
}

// Member builds the FQSEN of a method or constant declared in class f.
func (f FQSEN) Member(name string) MemberFQSEN {
	return MemberFQSEN{Class: f, Name: name}
}

func (m MemberFQSEN) String() string {
	return m.Class.String() + "::" + m.Name
}

func fromFullyQualified(fq string) FQSEN {
	fq = strings.TrimPrefix(fq, NamespaceSeparator)
	idx := strings.LastIndex(fq, NamespaceSeparator)
	if idx < 0 {
		return FQSEN{Namespace: GlobalNamespace, Name: fq}
	}
	return FQSEN{
		Namespace: NamespaceSeparator + fq[:idx],
		Name:      fq[idx+1:],
	}
}

func joinNamespace(namespace, name string) string {
	namespace = normalizeNamespace(namespace)
	if namespace == GlobalNamespace {
		return NamespaceSeparator + name
	}
	return namespace + NamespaceSeparator + name
}

func normalizeNamespace(namespace string) string {
	namespace = strings.Trim(strings.TrimSpace(namespace), NamespaceSeparator)
	if namespace == "" {
		return GlobalNamespace
	}
	return NamespaceSeparator + namespace
}

func hasNamespaceKeyword(name string) bool {
	return len(name) > len("namespace\\") && strings.EqualFold(name[:len("namespace\\")], "namespace\\")
}

func splitAlternateID(s string) (string, int) {
	idx := strings.LastIndex(s, ",")
	if idx < 0 {
		return s, 0
	}
	id, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return s, 0
	}
	return s[:idx], id
}
