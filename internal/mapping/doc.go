// Package mapping provides the field→path model that drives document
// reconstruction: JSON schema parsing, path validation, group-only
// classification, and per-field choice lists.
//
// The mapping file is the single source of structure; input tables carry
// flat columns and the mapping decides where each column's value lands in
// the output tree.
//
// # Key capabilities
//
//   - Ordered field→path pairs (file order is population order)
//   - Optional per-field label→code choice lists, order preserved
//   - Group-only classification of structural marker fields
//   - Fail-fast validation of path syntax
//   - Non-fatal lint warnings via the diagnostic package
//
// # Schema Overview
//
// Two file shapes are accepted. The flat shape maps field names straight
// to paths:
//
//	{
//	  "email": "org_details/FOCAL_POINTS/email",
//	  "name":  "org_details/name"
//	}
//
// The structured shape adds choice lists:
//
//	{
//	  "fields": {
//	    "email": "org_details/FOCAL_POINTS/email",
//	    "color": "org_details/color"
//	  },
//	  "choices": {
//	    "color": {"Red": "r", "Blue": "b"}
//	  }
//	}
//
// Paths use "/" as the segment separator and never begin or end with one.
//
// # Group-Only Fields
//
// A field whose name equals the last segment of its own path, while some
// other field's path extends it (prefix + "/"), names a structural
// container rather than a leaf. Such fields never receive a value of
// their own; their segments still materialize when other fields' paths
// traverse them. A genuine leaf whose name coincides with a container
// name and has no mapped descendants is classified leaf, which can
// misfire when the descendants are simply not mapped; the heuristic is
// kept as-is because the exports this model serves always map the
// descendants.
package mapping
