// Package output writes query rows as CSV, JSON, JSON Lines or text tables,
// and exports row windows of parquet files.
//
// # Supported Formats
//
//   - CSV: header of column names, cells in flat text form, optional BOM
//   - JSON: one array of objects indented by two spaces
//   - JSON Lines: one JSON object per line (suitable for streaming)
//   - Table: bordered text table for terminals
//
// # Basic Usage
//
//	formatter, err := output.NewFormatter("csv", os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := formatter.Format(columns, rows); err != nil {
//	    log.Fatal(err)
//	}
//
// # Exporting
//
// Export reads rows straight from the source file, without any cache:
//
//	offset, limit := int64(100), int64(50)
//	msg, err := output.Export("data.parquet", "out.csv", "csv", &offset, &limit)
//	// msg == "Successfully exported 50 rows to out.csv"
//
// Only csv and json are accepted by Export. Any other name fails with
// errs.KindUnsupportedFormat before the destination is created.
package output
