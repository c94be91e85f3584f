// Package records registers the accounting export record types with the
// core registry. Import it for its side effects:
//
//	import _ "github.com/JonMunkholm/csvmap/internal/core/records"
package records
