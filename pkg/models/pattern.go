package models

// OperationKind identifies the deterministic procedure a correlation
// pattern executes.
type OperationKind string

const (
	// OpCountAggregate groups secondary-entity records by the link field,
	// keeps groups whose size satisfies the extracted threshold, and
	// returns the corresponding primary-entity ids.
	OpCountAggregate OperationKind = "count_aggregate"

	// OpExclusion returns primary-entity ids that never appear as a
	// link-field value on the secondary entity.
	OpExclusion OperationKind = "exclusion"
)

// ThresholdComparator is the comparison applied to group sizes in a
// count aggregation.
type ThresholdComparator string

const (
	CmpGte ThresholdComparator = ">="
	CmpGt  ThresholdComparator = ">"
)
