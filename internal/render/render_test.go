package render_test

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"testing"

	"github.com/homeweave/dashboard/internal/render"
	. "github.com/smartystreets/goconvey/convey"
)

const row = ".content .weave-medium-cards-row"

func newRegistry() *render.Registry {
	reg, err := render.NewRegistry()
	So(err, ShouldBeNil)
	So(reg.RegisterDefaults(), ShouldBeNil)
	return reg
}

func TestRegistry(t *testing.T) {
	Convey("Given the component registry", t, func() {
		reg, err := render.NewRegistry()
		So(err, ShouldBeNil)

		Convey("When registering the default components", func() {
			So(reg.RegisterDefaults(), ShouldBeNil)

			Convey("Then all seven are bound", func() {
				So(reg.Len(), ShouldEqual, len(render.DefaultComponents))
				So(reg.Len(), ShouldEqual, 7)
			})
		})

		Convey("When registering against a missing template", func() {
			err := reg.Register("nope", "#template-nope")

			Convey("Then it fails", func() {
				So(errors.Is(err, render.ErrUnknownTemplate), ShouldBeTrue)
			})
		})

		Convey("When rendering before the component is registered", func() {
			_, _, err := reg.Render(json.RawMessage(`{"component":"paragraph","data":{"text":"x"}}`))

			Convey("Then it is an unknown component", func() {
				So(errors.Is(err, render.ErrUnknownComponent), ShouldBeTrue)
			})
		})
	})
}

func TestRender(t *testing.T) {
	Convey("Given registered default components", t, func() {
		reg := newRegistry()

		Convey("When rendering a medium card with nested descriptors", func() {
			html, component, err := reg.Render(json.RawMessage(`{
				"component": "medium-card",
				"data": {
					"title": "Lights",
					"icon": {"component": "weave-icon", "data": {"icon": "bulb"}},
					"content": {"component": "vertical-layout", "data": {"children": [
						{"component": "header-3", "data": {"text": "Living room"}},
						{"component": "paragraph", "data": {"text": "3 on"}}
					]}},
					"footer": {"component": "card-footer-status", "data": {"status": "ok", "text": "Online"}}
				}
			}`))

			Convey("Then the whole tree is rendered", func() {
				So(err, ShouldBeNil)
				So(component, ShouldEqual, "medium-card")
				s := string(html)
				So(s, ShouldStartWith, `<div class="weave-medium-card">`)
				So(s, ShouldContainSubstring, `<i class="weave-icon icon-bulb"`)
				So(s, ShouldContainSubstring, `<h3 class="card-title">Lights</h3>`)
				So(s, ShouldContainSubstring, `<h3 class="weave-header">Living room</h3>`)
				So(s, ShouldContainSubstring, `<p class="weave-paragraph">3 on</p>`)
				So(s, ShouldContainSubstring, `card-footer-status status-ok`)
			})
		})

		Convey("When data contains markup", func() {
			html, _, err := reg.Render(json.RawMessage(`{"component":"paragraph","data":{"text":"<script>x</script>"}}`))

			Convey("Then it is escaped", func() {
				So(err, ShouldBeNil)
				So(string(html), ShouldNotContainSubstring, "<script>")
				So(string(html), ShouldContainSubstring, "&lt;script&gt;")
			})
		})

		Convey("When a button has an action", func() {
			html, _, err := reg.Render(json.RawMessage(`{"component":"weave-button","data":{"text":"Go","action":"toggle"}}`))
			So(err, ShouldBeNil)
			So(string(html), ShouldContainSubstring, `data-action="toggle"`)
		})

		Convey("When data is missing", func() {
			html, _, err := reg.Render(json.RawMessage(`{"component":"header-3"}`))
			So(err, ShouldBeNil)
			So(string(html), ShouldEqual, `<h3 class="weave-header"></h3>`)
		})

		Convey("When the descriptor is malformed", func() {
			_, _, errJSON := reg.Render(json.RawMessage(`[1,2]`))
			_, _, errNoName := reg.Render(json.RawMessage(`{"data":{}}`))
			_, _, errNested := reg.Render(json.RawMessage(`{"component":"vertical-layout","data":{"children":["text"]}}`))

			Convey("Then each is an invalid descriptor", func() {
				So(errors.Is(errJSON, render.ErrInvalidDescriptor), ShouldBeTrue)
				So(errors.Is(errNoName, render.ErrInvalidDescriptor), ShouldBeTrue)
				So(errors.Is(errNested, render.ErrInvalidDescriptor), ShouldBeTrue)
			})
		})
	})
}

func TestDocument(t *testing.T) {
	Convey("Given a document with two containers", t, func() {
		doc := render.NewDocument(row, "#sidebar")

		Convey("When appending to one container", func() {
			So(doc.Append(row, "<a></a>"), ShouldBeNil)
			So(doc.Append(".content   .weave-medium-cards-row", "<b></b>"), ShouldBeNil)

			Convey("Then only that container receives content, in order", func() {
				So(doc.Fragments(row), ShouldResemble, []template.HTML{"<a></a>", "<b></b>"})
				So(doc.Fragments("#sidebar"), ShouldBeEmpty)
				So(string(doc.HTML(row)), ShouldEqual, "<a></a><b></b>")
			})
		})

		Convey("When appending to an undeclared container", func() {
			err := doc.Append("#footer", "<a></a>")

			Convey("Then it fails and nothing changes", func() {
				So(errors.Is(err, render.ErrUnknownContainer), ShouldBeTrue)
				So(doc.Fragments("#footer"), ShouldBeNil)
				So(doc.Fragments(row), ShouldBeEmpty)
			})
		})
	})
}

func TestApplication(t *testing.T) {
	Convey("Given an application over a document", t, func() {
		ctx := context.Background()
		reg := newRegistry()
		doc := render.NewDocument(row)
		var failures []error
		app := render.NewApplication(reg, doc, render.WithErrorHandler(func(_ context.Context, err error, _ json.RawMessage) {
			failures = append(failures, err)
		}))

		Convey("When mounting a valid card", func() {
			err := app.Mount(ctx, row, json.RawMessage(`{"component":"paragraph","data":{"text":"A"}}`))

			Convey("Then it is appended and no failure is reported", func() {
				So(err, ShouldBeNil)
				So(len(doc.Fragments(row)), ShouldEqual, 1)
				So(failures, ShouldBeEmpty)
			})
		})

		Convey("When mounting an unknown component", func() {
			err := app.Mount(ctx, row, json.RawMessage(`{"component":"chart"}`))

			Convey("Then the handler sees the error and the container is untouched", func() {
				So(errors.Is(err, render.ErrUnknownComponent), ShouldBeTrue)
				So(len(failures), ShouldEqual, 1)
				So(doc.Fragments(row), ShouldBeEmpty)
			})
		})

		Convey("When mounting into an undeclared container", func() {
			err := app.Mount(ctx, "#elsewhere", json.RawMessage(`{"component":"paragraph","data":{"text":"A"}}`))

			Convey("Then it fails", func() {
				So(errors.Is(err, render.ErrUnknownContainer), ShouldBeTrue)
				So(len(failures), ShouldEqual, 1)
			})
		})
	})
}
