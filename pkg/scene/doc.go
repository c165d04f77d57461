// Package scene provides the objects a scene is built from.
//
// Every object follows the CSS box model: its outer size is the content size
// plus padding, border and margin on each side. Leaf objects ([Rect],
// [Spacer], [Image], [Text]) draw content; containers ([Flex], [Stack],
// [Relative]) arrange child objects and composite their renderings.
//
// [Relative] is the interesting one: children are positioned with relations
// such as "below" or "align left" and the container infers its own size, see
// package [github.com/matzehuels/scenebox/pkg/core/relative].
//
// Rendered images and solved layouts are memoized. Mutating an object marks
// its memo dirty, and dirtiness propagates to every container holding it, so
// re-rendering a scene only redoes the changed branches.
package scene
