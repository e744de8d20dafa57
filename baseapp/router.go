package baseapp

import (
	sdk "github.com/chainkit/corechain/types"
	sdkerrors "github.com/chainkit/corechain/types/errors"
)

// MsgDecoder turns one message's Any.Value payload into its typed form.
type MsgDecoder func(value []byte) (sdk.Msg, error)

// MsgHandler executes one typed message against state.
type MsgHandler func(ctx sdk.Context, msg sdk.Msg) (sdk.Result, error)

// QueryHandler serves one query path against a read-only context pinned
// at the requested height.
type QueryHandler func(ctx sdk.Context, data []byte) ([]byte, error)

// Router maps message type URLs to their owning module's decoder and
// handler, and query paths to query handlers. Registration happens once
// at app construction; lookups are read-only afterwards, so no locking.
type Router struct {
	decoders map[string]MsgDecoder
	handlers map[string]MsgHandler
	queries  map[string]QueryHandler
}

func NewRouter() *Router {
	return &Router{
		decoders: make(map[string]MsgDecoder),
		handlers: make(map[string]MsgHandler),
		queries:  make(map[string]QueryHandler),
	}
}

// AddRoute registers a message type's decoder and handler. Panics on a
// duplicate type URL: double registration is a wiring bug.
func (r *Router) AddRoute(typeURL string, dec MsgDecoder, h MsgHandler) *Router {
	if _, exists := r.decoders[typeURL]; exists {
		panic("baseapp: route already registered for " + typeURL)
	}
	r.decoders[typeURL] = dec
	r.handlers[typeURL] = h
	return r
}

// AddQuery registers a query path handler.
func (r *Router) AddQuery(path string, h QueryHandler) *Router {
	if _, exists := r.queries[path]; exists {
		panic("baseapp: query already registered for " + path)
	}
	r.queries[path] = h
	return r
}

// Decode resolves and runs the decoder for typeURL.
func (r *Router) Decode(typeURL string, value []byte) (sdk.Msg, error) {
	dec, ok := r.decoders[typeURL]
	if !ok {
		return nil, sdkerrors.Wrapf(sdkerrors.ErrUnknownRequest, "no decoder for message type %s", typeURL)
	}
	return dec(value)
}

// Handler resolves the handler for typeURL.
func (r *Router) Handler(typeURL string) (MsgHandler, error) {
	h, ok := r.handlers[typeURL]
	if !ok {
		return nil, sdkerrors.Wrapf(sdkerrors.ErrUnknownRequest, "no handler for message type %s", typeURL)
	}
	return h, nil
}

// Query resolves the handler for path.
func (r *Router) Query(path string) (QueryHandler, bool) {
	h, ok := r.queries[path]
	return h, ok
}
