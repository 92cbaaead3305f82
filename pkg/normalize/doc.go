// Package normalize maps a backend document schema onto the structures a CRUD
// screen renders from: table columns (fields flagged inTable), form field
// groups (one per section, fields flagged isForm minus the reserved action/id
// keys), and the printable subset (fields flagged isPrint). Order follows the
// schema: sections as declared, then fields within each section. Dropdown
// options are carried onto a form field only when its type names a dropdown
// and the backend supplied an options list.
package normalize
