package main

import "fmt"

type Table struct {
	name string
	rows []int
	idx  map[string]int
}

func (t *Table) Print() {
	fmt.Println(t.name)
	fmt.Println(t.rows)
	fmt.Println(t.idx)
}

func small(b int) int {
	return b + 1
}

func large(a int) int {
	s := 0
	for i := 0; i < a; i++ {
		switch i % 4 {
		case 0:
			s += small(i)
		case 1:
			s -= i * 3
		case 2:
			s ^= i << 2
		default:
			fmt.Println(i, s)
		}
	}
	return s
}

func main() {
	fmt.Println(large(10))

	t := &Table{name: "t", rows: []int{1, 2, 3}, idx: map[string]int{"a": 1, "b": 2}}
	t.Print()
}
