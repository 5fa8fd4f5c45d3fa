// Package prompt resolves user-authored prompt templates against record
// fields and manages the saved-template library. Templates contain
// placeholders of the form {FieldName}; resolution is a single pass with
// exact, case-sensitive field lookup and no recursive substitution.
package prompt
