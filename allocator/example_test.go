package allocator_test

import (
	"fmt"

	"github.com/QuangTung97/regionarena/allocator"
)

func ExampleRegion() {
	r, err := allocator.New(256)
	if err != nil {
		panic(err)
	}
	defer r.Destroy()

	p, ok := r.Allocate(5)
	if !ok {
		panic("region exhausted")
	}
	copy(r.Bytes(p, 5), "hello")

	p, ok = r.Reallocate(p, 64)
	if !ok {
		panic("region exhausted")
	}
	fmt.Println(string(r.Bytes(p, 5)))

	r.Free(p)
	fmt.Println(r.GetMemUsage())
	// Output:
	// hello
	// 0
}
