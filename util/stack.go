package util

type Stack[A any] struct {
	items []A
}

func (s *Stack[A]) Push(v A) {
	s.items = append(s.items, v)
}

func (s *Stack[A]) Pop() (ret A, ok bool) {
	if len(s.items) <= 0 {
		return ret, false
	}
	lastIndex := len(s.items) - 1
	defer func() {
		s.items = s.items[:lastIndex]
	}()
	return s.items[len(s.items)-1], true
}

func (s *Stack[A]) Len() int {
	return len(s.items)
}

// TruncateTo drops every element pushed after the stack had length n,
// returning the dropped elements in push order.
func (s *Stack[A]) TruncateTo(n int) []A {
	if n >= len(s.items) {
		return nil
	}
	dropped := s.items[n:]
	s.items = s.items[:n]
	return dropped
}
