package sqlmodelfilters

import (
	"fmt"

	"github.com/ninoseki/sqlmodel-filters/query"
)

// UnsupportedNodeError reports a query node kind the compiler does not
// implement, with the node's source position. Always fatal.
type UnsupportedNodeError struct {
	Node query.Node
}

func (e *UnsupportedNodeError) Error() string {
	return fmt.Sprintf("%T is not supported (position %d)", e.Node, e.Node.Pos())
}

// MaxDepthError reports a query tree deeper than the configured limit.
type MaxDepthError struct {
	MaxDepth int
}

func (e *MaxDepthError) Error() string {
	return fmt.Sprintf("query tree exceeds the maximum depth of %d", e.MaxDepth)
}
