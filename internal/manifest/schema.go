package manifest

// schemaSource constrains a manifest document. Definitions are closed, so a
// misspelled key is an error rather than silently ignored.
const schemaSource = `
#Tag: =~"^[^:\\s][^:]*:.*[^\\s]$"

#Entry: {
	path:       string & !=""
	summary:    string
	desc?:      string
	extra?:     string
	thumbnail?: string & !=""
	tags?: [...#Tag]
	fav?:   bool
	trash?: bool
}

#Manifest: {
	files: [...#Entry]
}
`
