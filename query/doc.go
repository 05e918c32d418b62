// Package query provides SQL query parsing and execution over parquet
// tables.
//
// A Session holds named tables and runs single-table SELECT statements:
//   - SELECT [DISTINCT] with *, alias.*, expressions and aliases
//   - WHERE with three-valued logic (a NULL predicate drops the row)
//   - GROUP BY and HAVING with COUNT, SUM, AVG, MIN and MAX
//   - ORDER BY with ASC/DESC and NULLS FIRST/LAST
//   - LIMIT and OFFSET, pushed to the scan when nothing else needs the
//     full input
//   - CASE, CAST, LIKE/ILIKE, IN, BETWEEN and scalar functions
//
// # Basic Usage
//
//	r, err := reader.NewReader("data.parquet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	s := query.NewSession()
//	s.Register(query.TableName, r)
//
//	rows, err := query.ReadData(s, 0, 100, "score > 10")
//	n, err := query.CountData(s, "")
//	res, err := query.ExecuteSQL(s, "SELECT name, COUNT(*) AS c FROM t GROUP BY name")
//
// Rows are returned as value.Object values whose members follow the result
// column order.
//
// # Errors
//
// Syntax errors, unknown tables, columns or functions and misplaced
// aggregates are errs.KindQueryPlan. Type errors found while evaluating a
// row, such as comparing a string with a number, are errs.KindConversion.
package query
