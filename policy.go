package easel

// TransformPolicy configures the shared transformer for a selection.
type TransformPolicy struct {
	EnabledHandles  []Handle
	AspectLocked    bool
	RotationAllowed bool
	CenteredScaling bool
	// BoundingConstraint, when nil, rejects steps that shrink a side below
	// Config.MinTransformSize.
	BoundingConstraint BoundingConstraint
}

// DefaultPolicy applies to unrecognized types and to every multi-element
// selection: all eight handles, rotation allowed, no aspect lock.
var DefaultPolicy = TransformPolicy{
	EnabledHandles:  AllHandles,
	RotationAllowed: true,
}

// normalizeFunc folds a residual node scale into element geometry.
type normalizeFunc func(s *Selection, el Element, scale Vec2) (ElementUpdate, error)

// typeTraits is the per-type behaviour of an element kind.
type typeTraits struct {
	// textBearing types open the inline text editor on double-click.
	textBearing bool
	// selfManaged types draw their own selection UI and are kept off the
	// shared transformer.
	selfManaged bool
	policy      TransformPolicy
	normalize   normalizeFunc
}

var defaultTraits = typeTraits{
	policy:    DefaultPolicy,
	normalize: normalizeBox,
}

// traitsTable is the dispatch table for every known element type. Adding a
// type is one entry here.
var traitsTable = map[ElementType]typeTraits{
	TypeRectangle: {
		policy:    DefaultPolicy,
		normalize: normalizeBox,
	},
	TypeStickyNote: {
		textBearing: true,
		policy:      DefaultPolicy,
		normalize:   normalizeBox,
	},
	TypeCircle: {
		policy: TransformPolicy{
			EnabledHandles:  CornerHandles,
			CenteredScaling: true,
		},
		normalize: normalizeRadius,
	},
	TypeCircleText: {
		textBearing: true,
		policy: TransformPolicy{
			EnabledHandles:  CornerHandles,
			CenteredScaling: true,
		},
		normalize: normalizeRadius,
	},
	TypeText: {
		textBearing: true,
		policy: TransformPolicy{
			EnabledHandles: []Handle{
				HandleTopLeft, HandleTopRight, HandleMiddleRight,
				HandleBottomRight, HandleBottomLeft, HandleMiddleLeft,
			},
			RotationAllowed: true,
		},
		normalize: normalizeText,
	},
	TypeImage: {
		policy: TransformPolicy{
			EnabledHandles:  AllHandles,
			AspectLocked:    true,
			RotationAllowed: true,
		},
		normalize: normalizeBox,
	},
	TypeTable: {
		selfManaged: true,
		policy: TransformPolicy{
			EnabledHandles: []Handle{HandleMiddleRight, HandleBottomCenter, HandleBottomRight},
		},
		normalize: normalizeTable,
	},
	TypeTriangle: {
		policy:    DefaultPolicy,
		normalize: normalizeTriangle,
	},
	TypeConnector: {
		selfManaged: true,
		policy:      DefaultPolicy,
		normalize:   normalizePoints,
	},
}

func traitsFor(t ElementType) typeTraits {
	if tr, ok := traitsTable[t]; ok {
		return tr
	}
	return defaultTraits
}

// PolicyFor returns the transform policy of a single selected element of
// type t.
func PolicyFor(t ElementType) TransformPolicy {
	return traitsFor(t).policy
}

// ResolvePolicy returns the policy for a selection of the given types. Only
// a single-element selection uses its type's policy.
func ResolvePolicy(types []ElementType) TransformPolicy {
	if len(types) == 1 {
		return PolicyFor(types[0])
	}
	return DefaultPolicy
}

// IsTextBearing reports whether double-clicking an element of type t opens
// the text editor.
func IsTextBearing(t ElementType) bool {
	return traitsFor(t).textBearing
}

// ManagesOwnSelection reports whether elements of type t are kept off the
// shared transformer.
func ManagesOwnSelection(t ElementType) bool {
	return traitsFor(t).selfManaged
}
