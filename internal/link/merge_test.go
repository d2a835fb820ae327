package link

import (
	"errors"
	"strings"
	"testing"

	"github.com/llir/llvm/asm"

	"tern/internal/diag"
)

const mergeProg = `; ModuleID = 'prog'
target datalayout = "e-m:e-i64:64-f80:128-n8:16:32:64-S128"
target triple = "x86_64-unknown-linux-gnu"

%tern.str = type { i64, i8* }

declare i64 @lib_fn(i64)

define i64 @main() {
entry:
  %r = call i64 @lib_fn(i64 40)
  ret i64 %r
}
`

const mergeLib = `; ModuleID = 'lib'
%tern.str = type { i64, i8* }

@two = global i64 2

declare void @llvm.donothing()

define i64 @lib_fn(i64 %x) {
entry:
  call void @llvm.donothing()
  %t = load i64, i64* @two
  %r = add i64 %x, %t
  ret i64 %r
}

define i64 @dead_fn() {
entry:
  ret i64 0
}
`

func linkFixture(t *testing.T) (*Resolution, []*SymbolTable) {
	t.Helper()
	tables := []*SymbolTable{
		mustExtract(t, mergeProg, "prog", PriorityProgram),
		mustExtract(t, mergeLib, "lib", PriorityLibrary),
	}
	g := BuildGraph(tables)
	reachable := g.ReachableFrom([]string{"main"})
	return Resolve(tables, reachable, nil), tables
}

func TestMerge(t *testing.T) {
	res, tables := linkFixture(t)
	merged, err := Merge(res, "out", tables)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	// The output itself must be one valid module.
	if _, perr := asm.ParseString("out.ll", merged); perr != nil {
		t.Fatalf("merged module does not parse: %v\n%s", perr, merged)
	}

	if !strings.Contains(merged, "define i64 @main()") {
		t.Error("main definition missing")
	}
	if !strings.Contains(merged, "define i64 @lib_fn(") {
		t.Error("lib_fn definition missing")
	}
	if strings.Contains(merged, "@dead_fn") {
		t.Error("unreachable definition survived the merge")
	}
	// The program's declare of lib_fn is superseded by the definition.
	if strings.Contains(merged, "declare i64 @lib_fn") {
		t.Error("declaration kept alongside the definition")
	}
	if n := strings.Count(merged, "%tern.str = type"); n != 1 {
		t.Errorf("shared type emitted %d times, want 1", n)
	}
	if n := strings.Count(merged, "target triple"); n != 1 {
		t.Errorf("target triple emitted %d times, want 1", n)
	}
	if !strings.Contains(merged, "declare void @llvm.donothing()") {
		t.Error("intrinsic declaration dropped; calls to it are dangling")
	}

	// Section order: type definitions, then declarations and globals,
	// then function bodies.
	typeAt := strings.Index(merged, "%tern.str = type")
	globalAt := strings.Index(merged, "@two = global")
	defAt := strings.Index(merged, "define ")
	if typeAt == -1 || globalAt == -1 || defAt == -1 || typeAt > globalAt || globalAt > defAt {
		t.Errorf("section order wrong: type@%d global@%d define@%d", typeAt, globalAt, defAt)
	}
}

func TestMerge_TypeRedefinition(t *testing.T) {
	a := mustExtract(t, "%pair = type { i64, i64 }\n\ndefine void @f() {\nentry:\n  ret void\n}\n", "a", PriorityProgram)
	b := mustExtract(t, "%pair = type { i32, i32 }\n\ndefine void @g() {\nentry:\n  ret void\n}\n", "b", PriorityLibrary)
	tables := []*SymbolTable{a, b}
	g := BuildGraph(tables)
	res := Resolve(tables, g.ReachableFrom([]string{"f", "g"}), nil)

	_, err := Merge(res, "out", tables)
	if err == nil {
		t.Fatal("Merge with conflicting type bodies succeeded")
	}
	if diag.CodeOf(err) != diag.LinkTypeRedefinition {
		t.Errorf("code = %v, want %v", diag.CodeOf(err), diag.LinkTypeRedefinition)
	}
}

func TestMerge_IdenticalTypesDedupe(t *testing.T) {
	a := mustExtract(t, "%pair = type { i64, i64 }\n\ndefine void @f() {\nentry:\n  ret void\n}\n", "a", PriorityProgram)
	b := mustExtract(t, "%pair = type { i64, i64 }\n\ndefine void @g() {\nentry:\n  call void @f()\n  ret void\n}\n", "b", PriorityLibrary)
	tables := []*SymbolTable{a, b}
	g := BuildGraph(tables)
	res := Resolve(tables, g.ReachableFrom([]string{"g"}), nil)

	merged, err := Merge(res, "out", tables)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if n := strings.Count(merged, "%pair = type"); n != 1 {
		t.Errorf("identical type emitted %d times, want 1", n)
	}
}

func TestMerge_NilResolution(t *testing.T) {
	_, err := Merge(nil, "out", nil)
	if err == nil {
		t.Fatal("Merge(nil) succeeded")
	}
	if diag.CodeOf(err) != diag.LinkBadInput {
		t.Errorf("code = %v, want %v", diag.CodeOf(err), diag.LinkBadInput)
	}
}

func TestInvalidModuleError_CarriesText(t *testing.T) {
	inner := errors.New("boom")
	err := &InvalidModuleError{Err: inner, Text: "bad ir"}
	if !errors.Is(err, inner) {
		t.Error("Unwrap broken")
	}
	if err.Text != "bad ir" {
		t.Error("text not preserved")
	}
}
