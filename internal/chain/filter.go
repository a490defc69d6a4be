package chain

import "slices"

// PickKey forwards only the chunks carrying the given key. Terminal error
// chunks always pass through so consumers still see failures.
func PickKey(in <-chan StreamChunk, key string) <-chan StreamChunk {
	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		for chunk := range in {
			if chunk.Err != nil || slices.Contains(chunk.Keys(), key) {
				out <- chunk
			}
		}
	}()
	return out
}

// FilterEvents forwards only the events the predicate keeps.
func FilterEvents(in <-chan Event, keep func(Event) bool) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for ev := range in {
			if keep(ev) {
				out <- ev
			}
		}
	}()
	return out
}

// ByType keeps events whose type is one of the given types.
func ByType(types ...string) func(Event) bool {
	return func(ev Event) bool { return slices.Contains(types, ev.Event) }
}

// ByName keeps events emitted by a component with one of the given names.
func ByName(names ...string) func(Event) bool {
	return func(ev Event) bool { return slices.Contains(names, ev.Name) }
}

// ByTag keeps events carrying the given tag.
func ByTag(tag string) func(Event) bool {
	return func(ev Event) bool { return slices.Contains(ev.Tags, tag) }
}
