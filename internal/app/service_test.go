package service_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/homeweave/dashboard/internal/adapters/http/api"
	service "github.com/homeweave/dashboard/internal/app"
	"github.com/homeweave/dashboard/internal/domain/fault"
	"github.com/homeweave/dashboard/internal/domain/rpc"
	. "github.com/smartystreets/goconvey/convey"
)

const dummyApp = "y"

func dummyServer() *rpc.Server {
	return &rpc.Server{
		Name:        "name",
		Description: "desc",
		APIs: []rpc.API{
			{
				Name:   "api",
				Params: []rpc.Param{{Name: "param", Kind: rpc.KindString}},
				Handler: func(_ context.Context, args []any) (any, error) {
					return "API" + args[0].(string), nil
				},
			},
			{
				Name:   "number",
				Params: []rpc.Param{{Name: "param", Kind: rpc.KindInt}},
				Handler: func(_ context.Context, args []any) (any, error) {
					return args[0].(int) + 1, nil
				},
			},
			{
				Name: "exception",
				Handler: func(context.Context, []any) (any, error) {
					return nil, fault.ObjectNotFound("blah")
				},
			},
			{
				Name: "crash",
				Handler: func(context.Context, []any) (any, error) {
					return nil, io.ErrUnexpectedEOF
				},
			},
		},
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type harness struct {
	svc *service.Service
	srv *api.Server
	web *httptest.Server
}

func newHarness(ctx context.Context, pageOpts ...api.PageOption) *harness {
	svc := service.New()
	So(svc.Start(ctx), ShouldBeNil)
	So(svc.Registry().Register(dummyApp, dummyServer()), ShouldBeNil)

	srv, err := svc.HTTPServer(ctx, nil, pageOpts...)
	So(err, ShouldBeNil)
	So(srv.Start(ctx), ShouldBeNil)
	return &harness{svc: svc, srv: srv, web: httptest.NewServer(srv.Handler())}
}

func (h *harness) close(ctx context.Context) {
	h.web.Close()
	_ = h.srv.Stop(ctx)
	_ = h.svc.Stop(ctx)
}

func (h *harness) call(caller, appURL, rpcName, apiName string, args ...any) (int, envelope) {
	if args == nil {
		args = []any{}
	}
	body, _ := json.Marshal(map[string]any{
		"app_url":  appURL,
		"rpc_name": rpcName,
		"api_name": apiName,
		"args":     args,
	})
	req, _ := http.NewRequest(http.MethodPost, h.web.URL+"/rpc/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(api.CallerHeader, caller)
	}
	resp, err := http.DefaultClient.Do(req)
	So(err, ShouldBeNil)
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	So(json.NewDecoder(resp.Body).Decode(&env), ShouldBeNil)
	return resp.StatusCode, env
}

func (h *harness) get(path string) (int, string) {
	resp, err := http.Get(h.web.URL + path)
	So(err, ShouldBeNil)
	defer func() { _ = resp.Body.Close() }()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func (h *harness) register(filename, content string) string {
	code, env := h.call(dummyApp, h.svc.AppURL(), service.StaticFilesRPC, "register",
		filename, base64.StdEncoding.EncodeToString([]byte(content)))
	So(code, ShouldEqual, http.StatusOK)
	var rel string
	So(json.Unmarshal(env.Data, &rel), ShouldBeNil)
	return rel
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithAppURL("https://example.com/dash.git"))

		Convey("When it is not started", func() {
			_, err := svc.HTTPServer(ctx, nil)

			Convey("Then the HTTP server cannot be built", func() {
				So(err, ShouldEqual, service.ErrNotStarted)
				So(svc.Root(), ShouldBeEmpty)
			})
		})

		Convey("When it is started", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			root := svc.Root()

			Convey("Then the built-in RPC servers are registered under its app url", func() {
				_, err := svc.Registry().Find(ctx, "https://example.com/dash.git", service.StaticFilesRPC)
				So(err, ShouldBeNil)
				_, err = svc.Registry().Find(ctx, "https://example.com/dash.git", service.StatusCardsRPC)
				So(err, ShouldBeNil)
			})

			Convey("And the stylesheet is published", func() {
				href, ok := svc.AssetURL("css/dashboard.css")
				So(ok, ShouldBeTrue)
				So(href, ShouldStartWith, "/static/apps/")
			})

			Convey("And stopping releases everything", func() {
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.Stop(ctx), ShouldBeNil)
				_, err := svc.Registry().Find(ctx, svc.AppURL(), service.StaticFilesRPC)
				So(err, ShouldNotBeNil)
				So(root, ShouldNotBeEmpty)
				So(svc.Root(), ShouldEqual, root)
			})
		})
	})
}

func TestService_RPC(t *testing.T) {
	Convey("Given a running dashboard with a dummy app", t, func() {
		ctx := context.Background()
		h := newHarness(ctx)
		defer h.close(ctx)

		Convey("When calling an API with valid arguments", func() {
			code, env := h.call("", dummyApp, "name", "api", "test")

			Convey("Then the result is wrapped in the ok envelope", func() {
				So(code, ShouldEqual, http.StatusOK)
				So(env.Status, ShouldEqual, "ok")
				So(string(env.Data), ShouldEqual, `"APItest"`)
			})
		})

		Convey("When calling an int API with a number", func() {
			code, env := h.call("", dummyApp, "name", "number", 41)
			So(code, ShouldEqual, http.StatusOK)
			So(string(env.Data), ShouldEqual, "42")
		})

		Convey("When calling an int API with a string", func() {
			code, env := h.call("", dummyApp, "name", "number", "test")

			Convey("Then it is a 400 BadArguments", func() {
				So(code, ShouldEqual, http.StatusBadRequest)
				So(env.Status, ShouldEqual, "error")
				So(env.Message, ShouldContainSubstring, "BadArguments")
			})
		})

		Convey("When the API raises a domain error", func() {
			code, env := h.call("", dummyApp, "name", "exception")

			Convey("Then it is a 400 ObjectNotFound", func() {
				So(code, ShouldEqual, http.StatusBadRequest)
				So(env.Status, ShouldEqual, "error")
				So(env.Message, ShouldEqual, "ObjectNotFound: blah")
			})
		})

		Convey("When the API fails unexpectedly", func() {
			code, env := h.call("", dummyApp, "name", "crash")

			Convey("Then the details stay in the log", func() {
				So(code, ShouldEqual, http.StatusInternalServerError)
				So(env.Message, ShouldEqual, "Error has been logged.")
			})
		})

		Convey("When the RPC is unknown", func() {
			code, env := h.call("", dummyApp, "missing", "api")
			So(code, ShouldEqual, http.StatusBadRequest)
			So(env.Message, ShouldContainSubstring, "ObjectNotFound")
		})

		Convey("When a required argument is missing", func() {
			resp, err := http.Post(h.web.URL+"/rpc/", "application/json",
				strings.NewReader(`{"app_url":"y","rpc_name":"name","api_name":"api"}`))
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			var env envelope
			So(json.NewDecoder(resp.Body).Decode(&env), ShouldBeNil)

			Convey("Then the missing key is named", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(env.Message, ShouldEqual, "BadArguments: args")
			})
		})

		Convey("When the body is not JSON", func() {
			resp, err := http.Post(h.web.URL+"/rpc/", "application/json", strings.NewReader("nope"))
			So(err, ShouldBeNil)
			_ = resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestService_StaticFiles(t *testing.T) {
	Convey("Given a running dashboard", t, func() {
		ctx := context.Background()
		h := newHarness(ctx)
		defer h.close(ctx)

		Convey("When fetching a file nobody registered", func() {
			code, _ := h.get("/static/bad.html")
			So(code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When an app registers a resource", func() {
			rel := h.register("/a/x", "test")
			code, body := h.get("/static/" + rel)

			Convey("Then it is served under /static/", func() {
				So(code, ShouldEqual, http.StatusOK)
				So(body, ShouldEqual, "test")
			})
		})

		Convey("When an app unregisters a directory", func() {
			var rels []string
			for i := 0; i < 5; i++ {
				rels = append(rels, h.register("/b/"+strconv.Itoa(i), "test"))
			}
			for _, rel := range rels {
				code, _ := h.get("/static/" + rel)
				So(code, ShouldEqual, http.StatusOK)
			}

			code, _ := h.call(dummyApp, h.svc.AppURL(), service.StaticFilesRPC, "unregister", "/b/")
			So(code, ShouldEqual, http.StatusOK)

			Convey("Then every file below it is gone", func() {
				for _, rel := range rels {
					code, _ := h.get("/static/" + rel)
					So(code, ShouldEqual, http.StatusNotFound)
				}
			})
		})

		Convey("When registering outside the app directory", func() {
			code, env := h.call(dummyApp, h.svc.AppURL(), service.StaticFilesRPC, "register",
				"../../../../x", base64.StdEncoding.EncodeToString([]byte("test")))

			Convey("Then it is rejected", func() {
				So(code, ShouldEqual, http.StatusBadRequest)
				So(env.Message, ShouldContainSubstring, "BadArguments")
			})
		})

		Convey("When the content is not base64", func() {
			code, env := h.call(dummyApp, h.svc.AppURL(), service.StaticFilesRPC, "register", "x", "%%%")
			So(code, ShouldEqual, http.StatusBadRequest)
			So(env.Message, ShouldEqual, "BadArguments: content")
		})

		Convey("When the caller is unknown", func() {
			code, env := h.call("", h.svc.AppURL(), service.StaticFilesRPC, "register", "x", "dGVzdA==")
			So(code, ShouldEqual, http.StatusBadRequest)
			So(env.Message, ShouldContainSubstring, "caller")
		})

		Convey("When fetching a directory", func() {
			rel := h.register("/d/file", "x")
			dir := strings.TrimSuffix(rel, "/file")
			code, _ := h.get("/static/" + dir)
			So(code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestService_StatusCards(t *testing.T) {
	Convey("Given a running dashboard", t, func() {
		ctx := context.Background()
		h := newHarness(ctx)
		defer h.close(ctx)

		Convey("When nothing is published", func() {
			code, body := h.get("/api/status-cards")

			Convey("Then the cards list is empty", func() {
				So(code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(body), ShouldEqual, `{"cards":[]}`)
			})
		})

		Convey("When an app publishes cards", func() {
			for i, text := range []string{"Lights on", "Door locked", "Heating off"} {
				card := map[string]any{"component": "paragraph", "data": map[string]any{"text": text}}
				code, _ := h.call(dummyApp, h.svc.AppURL(), service.StatusCardsRPC, "publish", "c"+strconv.Itoa(i), card)
				So(code, ShouldEqual, http.StatusOK)
			}

			Convey("Then the endpoint returns them in publish order", func() {
				code, body := h.get("/api/status-cards")
				So(code, ShouldEqual, http.StatusOK)
				var resp struct {
					Cards []map[string]any `json:"cards"`
				}
				So(json.Unmarshal([]byte(body), &resp), ShouldBeNil)
				So(len(resp.Cards), ShouldEqual, 3)
				So(resp.Cards[1]["data"], ShouldResemble, map[string]any{"text": "Door locked"})
			})

			Convey("And the page renders each card into the cards row", func() {
				code, body := h.get("/")
				So(code, ShouldEqual, http.StatusOK)
				So(body, ShouldContainSubstring, `<div class="weave-medium-cards-row"><p class="weave-paragraph">Lights on</p>`)
				So(strings.Index(body, "Lights on"), ShouldBeLessThan, strings.Index(body, "Heating off"))
				So(body, ShouldNotContainSubstring, "weave-load-error")
				So(body, ShouldContainSubstring, `rel="stylesheet" href="/static/apps/`)
			})

			Convey("And withdrawing a card removes it", func() {
				code, _ := h.call(dummyApp, h.svc.AppURL(), service.StatusCardsRPC, "withdraw", "c1")
				So(code, ShouldEqual, http.StatusOK)
				_, body := h.get("/")
				So(body, ShouldNotContainSubstring, "Door locked")

				code, env := h.call(dummyApp, h.svc.AppURL(), service.StatusCardsRPC, "withdraw", "c1")
				So(code, ShouldEqual, http.StatusBadRequest)
				So(env.Message, ShouldContainSubstring, "ObjectNotFound")
			})

			Convey("And list returns them over RPC", func() {
				code, env := h.call(dummyApp, h.svc.AppURL(), service.StatusCardsRPC, "list")
				So(code, ShouldEqual, http.StatusOK)
				So(string(env.Data), ShouldContainSubstring, "Heating off")
			})
		})
	})
}

func TestService_PageLoadFailure(t *testing.T) {
	Convey("Given a dashboard whose cards endpoint is down", t, func() {
		ctx := context.Background()
		dead := httptest.NewServer(http.NotFoundHandler())
		dead.Close()

		Convey("When load errors are shown", func() {
			h := newHarness(ctx, api.WithCardsEndpoint(dead.URL+"/api/status-cards"))
			defer h.close(ctx)
			code, body := h.get("/")

			Convey("Then the page renders with a notice and no cards", func() {
				So(code, ShouldEqual, http.StatusOK)
				So(body, ShouldContainSubstring, "weave-load-error")
				So(body, ShouldContainSubstring, `<div class="weave-medium-cards-row"></div>`)
			})
		})

		Convey("When load errors are hidden", func() {
			h := newHarness(ctx,
				api.WithCardsEndpoint(dead.URL+"/api/status-cards"),
				api.WithLoadErrors(false),
			)
			defer h.close(ctx)
			code, body := h.get("/")

			Convey("Then the failure is silent", func() {
				So(code, ShouldEqual, http.StatusOK)
				So(body, ShouldNotContainSubstring, "weave-load-error")
			})
		})
	})
}

func TestService_PageIgnoresRequestHost(t *testing.T) {
	Convey("Given a dashboard and another server that would serve cards", t, func() {
		ctx := context.Background()
		h := newHarness(ctx)
		defer h.close(ctx)

		var hits atomic.Int64
		foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"cards":[{"component":"paragraph","data":{"text":"INJECTED"}}]}`)
		}))
		defer foreign.Close()

		code, _ := h.call(dummyApp, h.svc.AppURL(), service.StatusCardsRPC, "publish", "own",
			map[string]any{"component": "paragraph", "data": map[string]any{"text": "Own card"}})
		So(code, ShouldEqual, http.StatusOK)

		Convey("When the page is requested with the other server as Host", func() {
			req, err := http.NewRequest(http.MethodGet, h.web.URL+"/", nil)
			So(err, ShouldBeNil)
			req.Host = strings.TrimPrefix(foreign.URL, "http://")
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			body, _ := io.ReadAll(resp.Body)

			Convey("Then the cards come from the dashboard's own board", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(int(hits.Load()), ShouldEqual, 0)
				So(string(body), ShouldNotContainSubstring, "INJECTED")
				So(string(body), ShouldContainSubstring, "Own card")
			})
		})
	})
}
