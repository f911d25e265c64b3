package canvas

import (
	"testing"

	"github.com/spanlens/spanlens/geom"

	"gioui.org/unit"
	"github.com/stretchr/testify/assert"
)

func TestCanvasSpaces(t *testing.T) {
	c := New(200, 100, unit.Metric{PxPerDp: 2})

	assert.Equal(t, 2.0, c.DPR())
	assert.Equal(t, geom.NewRect(0, 0, 200, 100), c.LogicalSpace())
	assert.Equal(t, geom.NewRect(0, 0, 400, 200), c.PhysicalSpace())
	assert.Equal(t, geom.Pt(20, 10), c.LogicalToPhysical(geom.Pt(10, 5)))
	assert.Equal(t, geom.Pt(10, 5), c.PhysicalToLogical(geom.Pt(20, 10)))
	assert.Equal(t, 8, c.Dp(4))
}

func TestCanvasDegenerate(t *testing.T) {
	c := New(-5, 10, unit.Metric{})
	assert.Equal(t, 1.0, c.DPR())
	assert.Equal(t, geom.NewRect(0, 0, 0, 10), c.PhysicalSpace())

	c.Resize(30, -1)
	assert.Equal(t, geom.NewRect(0, 0, 30, 0), c.LogicalSpace())
}
