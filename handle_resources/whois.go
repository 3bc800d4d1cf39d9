package handle_resources

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/KincaidYang/nicwhois/utils"
	"github.com/KincaidYang/nicwhois/whois_tools"
)

// HandleWhois returns the handler for GET /{query}. It answers with the raw
// whois text. Optional parameters:
//
//	server         query this server instead of the one chosen for the query
//	authoritative  true or false, overrides the client setting
//	db             apnic, ipv6 or radb
func HandleWhois(client *whois_tools.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			utils.HandleHTTPError(w, utils.ErrorTypeMethodNotAllowed, "")
			return
		}

		resource := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/"))
		if resource == "" {
			utils.HandleHTTPError(w, utils.ErrorTypeBadRequest, "empty query")
			return
		}

		params := r.URL.Query()
		server := strings.TrimSpace(params.Get("server"))
		db := params.Get("db")
		if server != "" && db != "" {
			utils.HandleHTTPError(w, utils.ErrorTypeBadRequest, "server and db cannot be combined")
			return
		}

		inFlight.Add(1)
		defer inFlight.Add(-1)

		c := client
		if v := params.Get("authoritative"); v != "" {
			on, err := strconv.ParseBool(v)
			if err != nil {
				utils.HandleHTTPError(w, utils.ErrorTypeBadRequest, fmt.Sprintf("invalid authoritative value %q", v))
				return
			}
			c = client.WithAuthoritative(on)
		}

		var (
			result string
			err    error
		)
		if db != "" {
			result, err = c.QueryDatabase(r.Context(), db, resource)
		} else {
			result, err = c.Query(r.Context(), resource, server)
		}
		if err != nil {
			utils.HandleQueryError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, result)
	}
}
