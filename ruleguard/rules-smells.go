package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Consecutive guards with the same return can be merged:
	//   if a { return err }
	//   if b { return err }
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)
}

// stdJSON flags encoding/json in production code; the service encodes with goccy/go-json.
func stdJSON(m dsl.Matcher) {
	m.Import("encoding/json")
	m.Match(`json.Marshal($*_)`, `json.Unmarshal($*_)`, `json.NewDecoder($*_)`, `json.NewEncoder($*_)`).
		Where(!m.File().Name.Matches(`_test\.go$`)).
		Report(`use github.com/goccy/go-json instead of encoding/json`)
}

// stdLog flags the standard logger; everything logs through internal/infra/logging.
func stdLog(m dsl.Matcher) {
	m.Import("log")
	m.Match(`log.Print($*_)`, `log.Printf($*_)`, `log.Println($*_)`, `log.Fatal($*_)`, `log.Fatalf($*_)`).
		Report(`log through internal/infra/logging instead of the standard log package`)
}

// printOutsideMain flags stdout prints in library packages.
func printOutsideMain(m dsl.Matcher) {
	m.Match(`fmt.Println($*_)`, `fmt.Printf($*_)`, `fmt.Print($*_)`).
		Where(!m.File().PkgPath.Matches(`/cmd/`)).
		Report(`library packages must not print to stdout; use the zerolog logger`)
}

// defaultClient flags outbound calls that bypass the adapters' clients and
// their request-scoped deadlines.
func defaultClient(m dsl.Matcher) {
	m.Match(`http.DefaultClient`, `http.Get($*_)`, `http.Post($*_)`).
		Where(!m.File().Name.Matches(`_test\.go$`)).
		Report(`outbound HTTP must go through an adapter client with a request context`)
}
