package rdf

// Well-known datatype IRIs used by the term codec and query evaluation.
const (
	XSDString  = "http://www.w3.org/2001/XMLSchema#string"
	XSDBoolean = "http://www.w3.org/2001/XMLSchema#boolean"
	XSDInteger = "http://www.w3.org/2001/XMLSchema#integer"
	XSDDecimal = "http://www.w3.org/2001/XMLSchema#decimal"
	XSDDouble  = "http://www.w3.org/2001/XMLSchema#double"

	RDFLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
)
