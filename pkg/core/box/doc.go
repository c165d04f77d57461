// Package box provides symbolic rectangles and the relation vocabulary of the
// relative layout engine.
//
// A [Box] is spanned by two [Point] values whose coordinates are
// [expr.Linear] expressions, usually over the container's unknown origin and
// size. Relation transforms such as [Box.Right] or [Box.Center] derive a new
// box placed against a reference box while keeping the dependent box's own
// size:
//
//	a := box.OfConstSize(expr.Const(0), expr.Const(0), 10, 10)
//	b := box.OfConstSize(expr.Const(0), expr.Const(0), 10, 10).Right(a)
//	// b spans (10, 0) - (20, 10)
//
// Transforms fold left to right: when several relations touch the same
// coordinate, the one applied last wins.
//
// [Box.Constrain] turns one of the relations above, below, left or right into
// an [expr.Inequality] used to bound the container size.
package box
