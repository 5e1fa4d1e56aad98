package db

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern monta o padrão "%termo%" para ILIKE ... ESCAPE '\', tratando
// os curingas digitados pelo usuário como texto literal.
func ContainsPattern(termo string) string {
	return "%" + likeEscaper.Replace(termo) + "%"
}
