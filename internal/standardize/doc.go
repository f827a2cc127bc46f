// Package standardize maps raw entity names to canonical names, shapes one
// PPP vintage's table into the public schema and combines the vintages into
// the published dataset.
package standardize
