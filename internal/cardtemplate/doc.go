// Package cardtemplate renders card faces from stored Handlebars templates.
//
// A Renderer compiles each template once, caches it by template code, executes
// it against a knowledge item and its related knowledge, and passes the result
// through a Sanitizer before it leaves the package. Rendering never fails: any
// compile or execution error is turned into an HTML error fragment so a single
// broken template cannot take down a due-card response.
package cardtemplate
