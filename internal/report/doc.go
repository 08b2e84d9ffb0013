// Package report pivots collected ratings into per-criterion columns and
// renders theme progress and favorite picks as tables or CSV exports.
package report
