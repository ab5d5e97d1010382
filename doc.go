// Package scoperesolve resolves expression-bearing hierarchical forms into
// a fully populated scope tree.
//
// A form is a tree of items, each of which may carry expressions in one of
// two small languages: a path language (dotted navigation with %variable
// references) and a query language (URL strings that can embed path
// expressions inside {{ }} markers). Combined with an optional prior
// response tree and a set of externally supplied launch contexts, ParseAsync
// builds a scope tree mirroring the item tree, wires a dependency graph
// between expression nodes, and resolves that graph to a fixpoint: every
// path expression is delegated to a PathEvaluator, every query expression's
// distinct URLs are batched through a single ResourceLoader call per round,
// and a path expression producing more than one non-primitive value, or a
// query expression whose URL returns more than one resource, triggers a
// fan-out that clones the surrounding scope.
//
// The package does not itself understand the path or query language beyond
// enough tokenizing to discover variable references and embedded
// expressions (see PathEvaluator); it does not fetch anything over the
// network (see resource.Loader); and it does not persist results. All three
// are collaborator contracts a caller supplies.
//
// # Basic usage
//
//	root, err := scoperesolve.ParseAsync(
//		ctx,
//		form,
//		response,
//		map[string]resource.Resource{"patient": patient},
//		loader,
//		evaluator,
//		scoperesolve.ResolvingPopulation,
//		scoperesolve.Options{},
//	)
//	if err != nil {
//		// fatal: cycle, unresolvable node, or cancellation
//	}
//	for _, n := range root.Nodes() {
//		fmt.Println(n.Kind(), n.Text(), n.Value())
//	}
//
// # Diagnostics
//
// Non-fatal conditions (unsupported extensions, unknown variables, embedded
// expressions producing more than one result) are reported through an
// Options.Sink rather than failing the pass. pkg/diag provides a collecting
// sink and a scope-tree dumper useful when a pass does fail.
package scoperesolve
