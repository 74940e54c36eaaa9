// version/version.go
package version

import (
	"net/http"
	"runtime"

	"github.com/foliokit/contactd/httputil"
	"github.com/go-chi/chi/v5"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/foliokit/contactd/version.Version=1.0.0 \
//	                   -X github.com/foliokit/contactd/version.Commit=abc123"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is the body of GET /version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the build info of the running binary.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// Mount attaches GET /version.
func Mount(r chi.Router) {
	info := Get()
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, info)
	})
}

// String is the one-line form used in startup logs, e.g. "1.2.3 (abc123)".
func String() string {
	if Version == "dev" {
		return "dev"
	}
	return Version + " (" + Commit + ")"
}
