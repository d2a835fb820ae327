package codegen

// Runtime helpers shared by every emitted module. Names under the "tern."
// prefix are ordinary linkable symbols: each compiled module carries its own
// copy and the linker picks one by priority. Names under "llvm." are
// reserved intrinsics and never enter symbol resolution.
const preludeTypes = `%tern.str = type { i64, i8* }
%tern.array = type { i64, i64, i8* }
`

const preludeDecls = `declare i8* @malloc(i64)
declare void @free(i8*)
declare void @abort()
declare void @llvm.memset.p0i8.i64(i8*, i8, i64, i1)
`

// SplitMix64 finalizer for integer keys, FNV-1a for string keys. Allocation
// failure aborts the generated program; there is no recovery path without a
// collector (see tern.alloc).
const preludeDefs = `define i8* @tern.alloc(i64 %n) {
entry:
  %p = call i8* @malloc(i64 %n)
  %isnull = icmp eq i8* %p, null
  br i1 %isnull, label %oom, label %ok
oom:
  call void @abort()
  unreachable
ok:
  ret i8* %p
}

define void @tern.free(i8* %p) {
entry:
  call void @free(i8* %p)
  ret void
}

define void @tern.memset(i8* %p, i8 %v, i64 %n) {
entry:
  call void @llvm.memset.p0i8.i64(i8* %p, i8 %v, i64 %n, i1 false)
  ret void
}

define void @tern.trap() {
entry:
  call void @abort()
  unreachable
}

define i64 @tern.hash.i64(i64 %x) {
entry:
  %s1 = lshr i64 %x, 30
  %x1 = xor i64 %x, %s1
  %x2 = mul i64 %x1, -4658895280553007687
  %s2 = lshr i64 %x2, 27
  %x3 = xor i64 %x2, %s2
  %x4 = mul i64 %x3, -7723592293110705685
  %s3 = lshr i64 %x4, 31
  %x5 = xor i64 %x4, %s3
  ret i64 %x5
}

define i64 @tern.hash.str(%tern.str %s) {
entry:
  %len = extractvalue %tern.str %s, 0
  %data = extractvalue %tern.str %s, 1
  %hv = alloca i64
  %iv = alloca i64
  store i64 -3750763034362895579, i64* %hv
  store i64 0, i64* %iv
  br label %loop
loop:
  %i = load i64, i64* %iv
  %done = icmp uge i64 %i, %len
  br i1 %done, label %exit, label %body
body:
  %bp = getelementptr i8, i8* %data, i64 %i
  %b = load i8, i8* %bp
  %bw = zext i8 %b to i64
  %h = load i64, i64* %hv
  %x = xor i64 %h, %bw
  %m = mul i64 %x, 1099511628211
  store i64 %m, i64* %hv
  %in = add i64 %i, 1
  store i64 %in, i64* %iv
  br label %loop
exit:
  %out = load i64, i64* %hv
  ret i64 %out
}

define i1 @tern.str.eq(%tern.str %a, %tern.str %b) {
entry:
  %la = extractvalue %tern.str %a, 0
  %lb = extractvalue %tern.str %b, 0
  %da = extractvalue %tern.str %a, 1
  %db = extractvalue %tern.str %b, 1
  %iv = alloca i64
  store i64 0, i64* %iv
  %samelen = icmp eq i64 %la, %lb
  br i1 %samelen, label %loop, label %noteq
loop:
  %i = load i64, i64* %iv
  %done = icmp uge i64 %i, %la
  br i1 %done, label %eq, label %body
body:
  %pa = getelementptr i8, i8* %da, i64 %i
  %pb = getelementptr i8, i8* %db, i64 %i
  %ba = load i8, i8* %pa
  %bb = load i8, i8* %pb
  %same = icmp eq i8 %ba, %bb
  br i1 %same, label %next, label %noteq
next:
  %in = add i64 %i, 1
  store i64 %in, i64* %iv
  br label %loop
eq:
  ret i1 true
noteq:
  ret i1 false
}

`
