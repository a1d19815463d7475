// Command chicrtctl self-checks the Chic runtime and prints operator-facing
// diagnostics: allocator round-trips, container smoke tests, and the default
// allocator's size-class table (spec.md §4.J NEW).
package main

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chic "github.com/Chic-lang/Chic/runtime"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "chicrtctl",
		Short: "Operator diagnostics for the Chic runtime",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !verbose {
				return
			}
			logger, err := zap.NewDevelopment()
			if err != nil {
				fmt.Fprintln(os.Stderr, "logger init:", err)
				return
			}
			chic.SetLogger(logger.Sugar())
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "wire the runtime's debug logger to stderr")

	root.AddCommand(newSelfcheckCmd())
	root.AddCommand(newSizeClassesCmd())
	return root
}

type check struct {
	name string
	run  func() error
}

func newSelfcheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selfcheck",
		Short: "Exercise the allocator, containers, and shared cells",
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := []check{
				{"allocator round-trip", checkAllocator},
				{"string growth and utf-8", checkString},
				{"vector push/pop/resize", checkVector},
				{"hashset insert/remove/resize", checkHashSet},
				{"hashmap insert/replace", checkHashMap},
				{"arc clone/drop/upgrade", checkArc},
			}
			failed := false
			for _, c := range checks {
				if err := c.run(); err != nil {
					fmt.Printf("FAIL  %s: %v\n", c.name, err)
					failed = true
					continue
				}
				fmt.Printf("PASS  %s\n", c.name)
			}
			if failed {
				return fmt.Errorf("one or more self-checks failed")
			}
			return nil
		},
	}
}

func newSizeClassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sizeclasses",
		Short: "Print the default allocator's size-class table",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, sz := range chic.SizeClasses() {
				fmt.Printf("%6d bytes\n", sz)
			}
			return nil
		},
	}
}

func checkAllocator() error {
	p := chic.Alloc(256, 8)
	if p.Failed() {
		return fmt.Errorf("allocation failed")
	}
	defer chic.Free(p)
	if uintptr(p.Data)%8 != 0 {
		return fmt.Errorf("misaligned pointer")
	}
	return nil
}

func checkString() error {
	s, err := chic.StringFromSlice(chic.BytesToSlice([]byte("chicrtctl")))
	if err != chic.StringSuccess {
		return err
	}
	defer s.Drop()
	if err := s.PushSlice(chic.BytesToSlice([]byte(" self-check"))); err != chic.StringSuccess {
		return err
	}
	if string(s.AsSlice().AsBytes()) != "chicrtctl self-check" {
		return fmt.Errorf("unexpected contents after push")
	}
	return nil
}

func checkVector() error {
	var elem int32
	v := chic.NewVec(unsafe.Sizeof(elem), unsafe.Alignof(elem), nil)
	defer v.Drop()
	for i := int32(0); i < 128; i++ {
		x := i
		p := chic.ConstPtr{Ptr: unsafe.Pointer(&x), Size: unsafe.Sizeof(x), Align: unsafe.Alignof(x)}
		if err := v.Push(p); err != chic.VecSuccess {
			return err
		}
	}
	if v.Len() != 128 {
		return fmt.Errorf("expected length 128, got %d", v.Len())
	}
	return nil
}

func checkHashSet() error {
	var elem int32
	s := chic.NewHashSet(unsafe.Sizeof(elem), unsafe.Alignof(elem), nil, int32Eq)
	defer s.Drop()
	for i := int32(0); i < 64; i++ {
		x := i
		p := chic.ConstPtr{Ptr: unsafe.Pointer(&x), Size: unsafe.Sizeof(x), Align: unsafe.Alignof(x)}
		if _, err := s.Insert(p, int32Hash(unsafe.Pointer(&x))); err != chic.HashSetSuccess {
			return err
		}
	}
	x := int32(10)
	if removed, err := s.Remove(chic.ConstPtr{Ptr: unsafe.Pointer(&x), Size: unsafe.Sizeof(x), Align: unsafe.Alignof(x)}, int32Hash(unsafe.Pointer(&x))); err != chic.HashSetSuccess || !removed {
		return fmt.Errorf("expected removal of present element")
	}
	return nil
}

func checkHashMap() error {
	var k int32
	var v int64
	m := chic.NewHashMap(unsafe.Sizeof(k), unsafe.Alignof(k), unsafe.Sizeof(v), unsafe.Alignof(v), nil, nil, int32Eq)
	defer m.Drop()
	key, val := int32(1), int64(100)
	kp := chic.ConstPtr{Ptr: unsafe.Pointer(&key), Size: unsafe.Sizeof(key), Align: unsafe.Alignof(key)}
	vp := chic.ConstPtr{Ptr: unsafe.Pointer(&val), Size: unsafe.Sizeof(val), Align: unsafe.Alignof(val)}
	hash := int32Hash(unsafe.Pointer(&key))
	if _, err := m.Insert(kp, vp, hash); err != chic.HashMapSuccess {
		return err
	}
	if m.GetValuePtr(kp, hash) == nil {
		return fmt.Errorf("expected key to be present")
	}
	return nil
}

func checkArc() error {
	v := int64(7)
	a, err := chic.NewArc(chic.ConstPtr{Ptr: unsafe.Pointer(&v), Size: unsafe.Sizeof(v), Align: unsafe.Alignof(v)}, nil, 1)
	if err != chic.SharedSuccess {
		return err
	}
	b, err := a.Clone()
	if err != chic.SharedSuccess {
		return err
	}
	w, err := a.Downgrade()
	if err != chic.SharedSuccess {
		return err
	}
	if err := a.Drop(); err != chic.SharedSuccess {
		return err
	}
	if err := b.Drop(); err != chic.SharedSuccess {
		return err
	}
	if err := w.Drop(); err != chic.SharedSuccess {
		return err
	}
	return nil
}

func int32Eq(lhs, rhs unsafe.Pointer) int32 {
	if *(*int32)(lhs) == *(*int32)(rhs) {
		return 1
	}
	return 0
}

func int32Hash(p unsafe.Pointer) uint64 {
	return chic.DefaultHash64(unsafe.Slice((*byte)(p), 4))
}
