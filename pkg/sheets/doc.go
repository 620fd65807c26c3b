// Package sheets reads cell ranges from the spreadsheet that drives a menu.
//
// A [Source] returns the rows of an A1 range as strings. Two sources exist:
//
//   - [GoogleSource] reads a Google spreadsheet through the Sheets v4 API
//     with an API key.
//   - [XLSXSource] reads a local .xlsx workbook, for offline rendering and
//     for kiosks without network access.
//
// Both apply the same tab rule. A range that already names a tab
// ("Menu!A3:B") is used as is. Otherwise the configured tab is used when the
// workbook has it, else the first tab. Tab names are quoted with
// [FormatSheetName] when they contain anything but letters, digits or "_".
//
// Rows are returned as read: trailing empty cells may be missing and callers
// must treat a short row as padded with "".
package sheets
