package scoperesolve

import (
	"sort"

	"github.com/sdcforms/scoperesolve/pkg/formmodel"
	"github.com/sdcforms/scoperesolve/pkg/resource"
)

// extensionRule describes one recognized extension url: which kind of
// node it produces and which resolving context(s) and languages it
// accepts.
type extensionRule struct {
	kind          Kind
	populationOK  bool
	extractionOK  bool
	isContextKind bool // context kinds accept path or query; others accept path only
}

var extensionRules = map[string]extensionRule{
	formmodel.URLPopulationContext:    {kind: KindPopulationContext, populationOK: true, isContextKind: true},
	formmodel.URLExtractionContext:    {kind: KindExtractionContext, extractionOK: true, isContextKind: true},
	formmodel.URLInitialExpression:    {kind: KindInitialExpression, populationOK: true},
	formmodel.URLVariableExpression:   {kind: KindVariableExpression, populationOK: true, extractionOK: true},
	formmodel.URLCalculatedExpression: {kind: KindCalculatedExpression, populationOK: true, extractionOK: true},
	formmodel.URLExtractionContextID:  {kind: KindExtractionContextID, extractionOK: true},
}

// Parser walks a form tree in lexical order, pairing items with matching
// response items and materializing expression nodes.
type Parser struct {
	ids  *IdentifierProvider
	sink DiagnosticSink
	rc   ResolvingContext
}

// NewParser constructs a Parser. A nil sink is replaced with NopSink.
func NewParser(ids *IdentifierProvider, sink DiagnosticSink, rc ResolvingContext) *Parser {
	if sink == nil {
		sink = NopSink{}
	}
	return &Parser{ids: ids, sink: sink, rc: rc}
}

// Parse builds the initial scope tree from a form, an optional response,
// and a set of launch contexts keyed by name.
func (p *Parser) Parse(form *formmodel.Form, response *formmodel.Response, launchContexts map[string]resource.Resource) *Scope {
	root := newRootScope(p.ids.NextID())

	names := make([]string, 0, len(launchContexts))
	for name := range launchContexts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		root.addContext(newLaunchContext(p.ids.NextID(), name, launchContexts[name], root))
	}

	if form == nil {
		return root
	}
	p.parseExtensions(root, form.Extensions, nil, nil)

	var responseItems []*formmodel.ResponseItem
	if response != nil {
		responseItems = response.Items
	}
	p.parseItems(root, form.Items, responseItems)
	return root
}

// parseItems pairs each form item with its matching response items (by
// link id) and pushes one child scope per pairing, recursing afterward.
func (p *Parser) parseItems(parent *Scope, items []*formmodel.Item, responseItems []*formmodel.ResponseItem) {
	for _, item := range items {
		matches := formmodel.ItemsByLinkID(responseItems, item.LinkID)
		if len(matches) == 0 {
			matches = []*formmodel.ResponseItem{{LinkID: item.LinkID}}
		}
		for _, match := range matches {
			child := newChildScope(p.ids.NextID(), parent, item, match)
			p.parseExtensions(child, item.Extensions, item, match)
			p.parseItems(child, item.Children, match.Children)
		}
	}
}

// parseExtensions recognizes and materializes expression nodes from one
// item's (or the form's) extension list, reporting and skipping anything
// unsupported.
func (p *Parser) parseExtensions(scope *Scope, exts []formmodel.Extension, item *formmodel.Item, responseItem *formmodel.ResponseItem) {
	linkID := ""
	if item != nil {
		linkID = item.LinkID
	}
	for _, ext := range exts {
		rule, known := extensionRules[ext.URL]
		if !known {
			p.sink.Observe(Diagnostic{Severity: "warning", Code: "unsupported-extension", Message: "unrecognized extension url " + ext.URL, LinkID: linkID})
			continue
		}
		active := (p.rc == ResolvingPopulation && rule.populationOK) || (p.rc == ResolvingExtraction && rule.extractionOK)
		if !active {
			continue
		}
		if ext.Value == nil {
			p.sink.Observe(Diagnostic{Severity: "warning", Code: "empty-expression", Message: "extension carries no expression value", LinkID: linkID})
			continue
		}
		lang, ok := parseLanguage(ext.Value.Language, rule.isContextKind)
		if !ok {
			p.sink.Observe(Diagnostic{Severity: "warning", Code: "unsupported-language", Message: "unsupported expression language " + ext.Value.Language, LinkID: linkID})
			continue
		}
		if ext.Value.Expression == "" {
			p.sink.Observe(Diagnostic{Severity: "warning", Code: "empty-expression", Message: "expression text is empty", LinkID: linkID})
			continue
		}
		node := &ExpressionNode{
			id:           p.ids.NextID(),
			name:         ext.Value.Name,
			text:         ext.Value.Expression,
			language:     lang,
			kind:         rule.kind,
			scope:        scope,
			item:         item,
			responseItem: responseItem,
		}
		scope.addContext(node)
	}
}

func parseLanguage(lang string, isContextKind bool) (Language, bool) {
	switch lang {
	case string(LanguagePath):
		return LanguagePath, true
	case string(LanguageQuery):
		if isContextKind {
			return LanguageQuery, true
		}
		return "", false
	default:
		return "", false
	}
}
