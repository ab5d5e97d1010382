// Package formmodel defines the form/response data model the resolver
// core consumes: a tree of items carrying optional expression-bearing
// extensions, and a response tree that mirrors it by link id.
//
// This package is intentionally thin. Serialization, validation against a
// real form specification (e.g. FHIR Questionnaire), and construction of
// forms from wire formats are all collaborator concerns left to callers.
package formmodel

// Well-known extension URLs recognized by the parser.
const (
	URLPopulationContext    = "http://sdcforms.dev/StructureDefinition/population-context"
	URLExtractionContext    = "http://sdcforms.dev/StructureDefinition/extraction-context"
	URLInitialExpression    = "http://sdcforms.dev/StructureDefinition/initial-expression"
	URLVariableExpression   = "http://sdcforms.dev/StructureDefinition/variable-expression"
	URLCalculatedExpression = "http://sdcforms.dev/StructureDefinition/calculated-expression"
	URLExtractionContextID  = "http://sdcforms.dev/StructureDefinition/extraction-context-id"
)

// ItemType tags what kind of item a node in the form tree is.
type ItemType string

const (
	ItemTypeGroup     ItemType = "group"
	ItemTypeDisplay   ItemType = "display"
	ItemTypeString    ItemType = "string"
	ItemTypeInteger   ItemType = "integer"
	ItemTypeBoolean   ItemType = "boolean"
	ItemTypeDecimal   ItemType = "decimal"
	ItemTypeChoice    ItemType = "choice"
	ItemTypeDate      ItemType = "date"
	ItemTypeReference ItemType = "reference"
)

// Answerable reports whether items of this type can carry answers. Group and
// display items are structural only.
func (t ItemType) Answerable() bool {
	return t != ItemTypeGroup && t != ItemTypeDisplay
}

// Expression is the value of an extension shaped like a FHIR Expression
// datatype: a language tag, the expression source, and an optional name
// under which the expression can be looked up as a symbol (used by
// VariableExpression and CalculatedExpression).
type Expression struct {
	Language   string
	Expression string
	Name       string
}

// Extension is a url-tagged value attached to a Form or an Item. Only
// extensions whose Value is non-nil are expression-bearing; others are
// carried but ignored by the parser.
type Extension struct {
	URL   string
	Value *Expression
}

// Form is the root of the item tree, with its own form-level extensions.
type Form struct {
	Extensions []Extension
	Items      []*Item
}

// Item is one node of the form tree.
type Item struct {
	LinkID     string
	Type       ItemType
	Repeats    bool
	Initial    []any
	Extensions []Extension
	Children   []*Item
}

// Answer is one answered value of an answerable item, optionally carrying
// its own nested items (sub-questions asked per-answer).
type Answer struct {
	Value any
	Items []*ResponseItem
}

// ResponseItem mirrors an Item by link id.
type ResponseItem struct {
	LinkID   string
	Answers  []Answer
	Children []*ResponseItem
}

// AnswerValues flattens the answer values of a response item, in order.
func (r *ResponseItem) AnswerValues() []any {
	if r == nil {
		return nil
	}
	values := make([]any, 0, len(r.Answers))
	for _, a := range r.Answers {
		values = append(values, a.Value)
	}
	return values
}

// Response is the root of the response tree.
type Response struct {
	Items []*ResponseItem
}

// ItemsByLinkID returns every top-level response item with the given link
// id. Repeating groups are represented as multiple sibling entries.
func ItemsByLinkID(items []*ResponseItem, linkID string) []*ResponseItem {
	var matches []*ResponseItem
	for _, it := range items {
		if it.LinkID == linkID {
			matches = append(matches, it)
		}
	}
	return matches
}
