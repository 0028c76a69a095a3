// Package features turns a raw transaction table into the numeric feature
// matrix consumed by the downstream classifier.
//
// The Pipeline runs four stages in a fixed order:
//
//  1. DateFeatureExtractor adds hour, day, month and year.
//  2. TransactionAggregator joins per-customer amount statistics onto each row.
//  3. NumericNormalizer imputes nulls with the training median and applies a z-score.
//  4. CategoricalEncoder replaces category values with integer codes.
//
// The first two stages are stateless and recompute on every call. The last
// two are fit once and reused unchanged by Transform. Raw columns are not
// passed through: the output holds the normalized numeric block followed by
// the encoded categorical block, in the order returned by FeatureNames.
package features
