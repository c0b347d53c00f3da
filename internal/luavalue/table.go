package luavalue

// Table is the hybrid array+hash table that backs every Lua table value.
// Integer keys 1..len(arr) live in the array part; everything else (and
// integer keys beyond the array's current length, until they migrate) lives
// in the hash part. Table identity is pointer identity — there is no
// separate handle type.
type Table struct {
	arr []Value
	hash map[any]Value
}

// NewTable creates an empty table, optionally pre-sizing the array and hash
// parts the way NEWTABLE's decoded size hints do.
func NewTable(arraySize, hashSize int) *Table {
	t := &Table{}
	if arraySize > 0 {
		t.arr = make([]Value, 0, arraySize)
	}
	if hashSize > 0 {
		t.hash = make(map[any]Value, hashSize)
	}
	return t
}

// Len returns the table's border (`#t`): the length of the array part.
// With holes absent this is the conventional Lua table length; with holes
// present any border is a legal answer and we return the array length,
// matching the "len comes from the array part" resolution this VM commits
// to.
func (t *Table) Len() int64 {
	return int64(len(t.arr))
}

// Get fetches the value at key, returning Nil for unset slots.
func (t *Table) Get(key Value) Value {
	if i, ok := arrayIndex(key); ok {
		if i >= 1 && int(i) <= len(t.arr) {
			return t.arr[i-1]
		}
		key = Integer(i)
	}
	if t.hash == nil {
		return Nil
	}
	if v, ok := t.hash[key.hashKey()]; ok {
		return v
	}
	return Nil
}

// GetInt is a fast path for integer-keyed lookups that does not need to
// build a Value key (used by the State API's I and the registry lookup).
func (t *Table) GetInt(i int64) Value {
	if i >= 1 && int(i) <= len(t.arr) {
		return t.arr[i-1]
	}
	if t.hash == nil {
		return Nil
	}
	if v, ok := t.hash[i]; ok {
		return v
	}
	return Nil
}

// GetStr is a fast path for string-keyed lookups (the State API's Field and
// Global).
func (t *Table) GetStr(s string) Value {
	if t.hash == nil {
		return Nil
	}
	if v, ok := t.hash[s]; ok {
		return v
	}
	return Nil
}

// Set stores value at key. A Nil value deletes the key. Integer keys that
// extend the array by exactly one append and trigger migration of any
// now-contiguous hash entries into the array; a Nil write at the array's
// tail shrinks the array, dropping the trailing run of nils.
func (t *Table) Set(key, value Value) {
	if i, ok := arrayIndex(key); ok {
		t.setInt(i, value)
		return
	}
	t.setHash(key.hashKey(), value)
}

// SetInt is the integer-key fast path used by SETLIST and the State API's SetI.
func (t *Table) SetInt(i int64, value Value) {
	t.setInt(i, value)
}

// SetStr is the string-key fast path used by the State API's SetField,
// SetGlobal and Register.
func (t *Table) SetStr(s string, value Value) {
	t.setHash(s, value)
}

func (t *Table) setInt(i int64, value Value) {
	n := int64(len(t.arr))
	switch {
	case i >= 1 && i <= n:
		t.arr[i-1] = value
		if value.IsNil() && i == n {
			t.shrink()
		}
	case i == n+1 && !value.IsNil():
		t.arr = append(t.arr, value)
		t.migrateFromHash()
	case value.IsNil():
		if t.hash != nil {
			delete(t.hash, i)
		}
	default:
		t.setHash(i, value)
	}
}

func (t *Table) setHash(key any, value Value) {
	if value.IsNil() {
		if t.hash != nil {
			delete(t.hash, key)
		}
		return
	}
	if t.hash == nil {
		t.hash = make(map[any]Value)
	}
	t.hash[key] = value
}

// shrink drops the trailing run of Nil values from the array part.
func (t *Table) shrink() {
	n := len(t.arr)
	for n > 0 && t.arr[n-1].IsNil() {
		n--
	}
	t.arr = t.arr[:n]
}

// migrateFromHash pulls any integer keys immediately following the array's
// new tail out of the hash part and appends them, repeating as long as the
// next key is present — an append can make a whole run of previously
// "overflow" integer keys contiguous.
func (t *Table) migrateFromHash() {
	if t.hash == nil {
		return
	}
	for {
		next := int64(len(t.arr)) + 1
		v, ok := t.hash[next]
		if !ok {
			return
		}
		delete(t.hash, next)
		t.arr = append(t.arr, v)
	}
}

// arrayIndex reports whether key addresses the array part: an Integer, or a
// Number with no fractional part (float keys that are exact integers
// normalize to integer keys).
func arrayIndex(key Value) (int64, bool) {
	switch key.Kind {
	case KindInteger:
		return key.I, true
	case KindNumber:
		return FloatToInteger(key.N)
	default:
		return 0, false
	}
}
