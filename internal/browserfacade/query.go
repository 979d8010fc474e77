package browserfacade

import (
	"fmt"

	"github.com/go-rod/rod"
)

// queryPierceJS is evaluated in-page. It walks every document and
// document-fragment descendant via a TreeWalker rooted at the given
// root, recursing into shadowRoot wherever one is present, and returns
// the selector-chain-relative matches for selector within the local
// root only (ascension across shadow boundaries is the caller's job —
// see pagescript.formSelectorChain).
//
// Per §9 "MooTools-style prototype tampering": the shadowRoot getter
// and matches function are captured once from Element.prototype before
// any page script has a chance to override them on an instance.
const queryPierceJS = `(sel) => {
	const proto = Element.prototype;
	const getShadow = Object.getOwnPropertyDescriptor(proto, 'shadowRoot').get;
	const matches = proto.matches;

	const results = [];
	const visit = (root) => {
		const walker = document.createTreeWalker(root, NodeFilter.SHOW_ELEMENT);
		let node = root.nodeType === 1 ? root : walker.nextNode();
		while (node) {
			if (node.nodeType === 1) {
				if (matches.call(node, sel)) results.push(node);
				let sr = null;
				try { sr = getShadow.call(node); } catch (e) {}
				if (sr) visit(sr);
			}
			node = walker.nextNode();
		}
	};
	visit(root ?? document);
	return results;
}`

// QueryAllPiercing returns every element handle within frame matching
// selector, descending through every open shadow root reachable from
// the document (§4.2 "query").
func QueryAllPiercing(frame *rod.Page, selector string) ([]*rod.Element, error) {
	arr, err := frame.ElementsByJS(rod.Eval(queryPierceJS, selector))
	if err != nil {
		return nil, fmt.Errorf("browserfacade: query %q: %w", selector, err)
	}
	return arr, nil
}
