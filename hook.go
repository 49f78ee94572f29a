package chash

// traceRing contains optional callbacks called on ring topology changes.
type traceRing struct {
	OnAddNode    func(Node) func(moved int)
	OnRemoveNode func(Node) func(moved int)
	OnMove       func(key string, from, to Node)
}

// Compose returns a new traceRing which calls callbacks of both t and x.
func (t traceRing) Compose(x traceRing) (ret traceRing) {
	ret.OnAddNode = composeDone(t.OnAddNode, x.OnAddNode)
	ret.OnRemoveNode = composeDone(t.OnRemoveNode, x.OnRemoveNode)
	switch {
	case t.OnMove == nil:
		ret.OnMove = x.OnMove
	case x.OnMove == nil:
		ret.OnMove = t.OnMove
	default:
		h1, h2 := t.OnMove, x.OnMove
		ret.OnMove = func(key string, from, to Node) {
			h1(key, from, to)
			h2(key, from, to)
		}
	}
	return ret
}

func composeDone(h1, h2 func(Node) func(int)) func(Node) func(int) {
	if h1 == nil {
		return h2
	}
	if h2 == nil {
		return h1
	}
	return func(n Node) func(int) {
		d1 := h1(n)
		d2 := h2(n)
		return func(moved int) {
			if d1 != nil {
				d1(moved)
			}
			if d2 != nil {
				d2(moved)
			}
		}
	}
}

func (t traceRing) onAddNode(n Node) func(int) {
	return callDone(t.OnAddNode, n)
}

func (t traceRing) onRemoveNode(n Node) func(int) {
	return callDone(t.OnRemoveNode, n)
}

func (t traceRing) onMove(key string, from, to Node) {
	if fn := t.OnMove; fn != nil {
		fn(key, from, to)
	}
}

func callDone(fn func(Node) func(int), n Node) func(int) {
	if fn == nil {
		return func(int) {}
	}
	if done := fn(n); done != nil {
		return done
	}
	return func(int) {}
}
