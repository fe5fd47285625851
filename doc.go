// Package qlfront is an H2 style SQL front end: a lexer, a recursive
// descent grammar and a binder that turn SQL text into statements resolved
// against a live catalog.  Planning and execution are left to the caller.
//
//	lex         classification pass, token cursor, compatibility modes
//	rel         statement and expression grammar, binder, statement cache
//	schema      catalog collaborator and sessions
//	datasource  catalogs from YAML files or live databases
//	qlfdriver   database/sql driver that prepares statements
package qlfront
