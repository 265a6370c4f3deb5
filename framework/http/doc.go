// Package http is the HTTP collaborator of the form layer: it parses request
// bodies into form input, runs schemas as middleware and writes JSON results.
//
// # Request
//
// Request wraps *http.Request and turns its body into form.Values.
//
//	req := gohttp.NewRequest(r)
//
//	values, err := req.Values()   // JSON object, urlencoded or multipart body
//	name := req.Input("name", "default")
//	ok   := req.Has("name")
//	id   := req.RouteParam("id")  // requires the chi router
//
// # Validate
//
// Validate processes the body against a schema and stores the result on the
// request context:
//
//	r.With(gohttp.Validate(gohttp.Static(signup), gohttp.FormOptions{Name: "signup"})).
//	    Post("/", func(w http.ResponseWriter, r *http.Request) {
//	        gohttp.NewResponse(w).Result(gohttp.FormResult(r))
//	    })
//
// Named forms from a schema file are served with Named:
//
//	gohttp.Validate(gohttp.Named(holder, "name"), gohttp.FormOptions{NameParam: "name"})
//
// # Response
//
//	res := gohttp.NewResponse(w)
//
//	res.JSON(200, data)            // raw JSON with status
//	res.Success(data)              // 200 {"data": ...}
//	res.Error(400, "bad input")    // {"message": "bad input"}
//	res.NotFound()                 // 404 {"message": "Not found."}
//	res.ServerError()              // 500 {"message": "Server Error."}
//	res.ValidationError(result)    // 422 {"data": {...}, "errors": {"field": "msg"}}
//	res.Result(result)             // Success or ValidationError
//
// # Metrics
//
// NewMetrics registers Prometheus counters for submissions by outcome and
// field errors by field. Pass it in FormOptions.Metrics.
package http
