package teectest

import (
	"sync"

	"github.com/securetee/xtest/servicedef"
	"github.com/securetee/xtest/ta"
	"github.com/securetee/xtest/teec"
)

// Storage is the persistent object store behind the fake storage application. It is shared by
// every session, and only the storage identifiers it was created with are available.
type Storage struct {
	available map[uint32]bool
	objects   map[objectKey]*object
	lock      sync.Mutex
}

type objectKey struct {
	storageID uint32
	name      string
}

type object struct {
	data []byte
}

type handle struct {
	key   objectKey
	obj   *object
	flags uint32
	pos   int
}

func NewStorage(availableIDs ...uint32) *Storage {
	s := &Storage{available: make(map[uint32]bool), objects: make(map[objectKey]*object)}
	for _, id := range availableIDs {
		s.available[id] = true
	}
	return s
}

// Objects returns the number of objects in all storages.
func (s *Storage) Objects() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.objects)
}

// StorageApp returns a factory for the storage application backed by st.
func StorageApp(st *Storage) AppFactory {
	return func() App {
		return &storageApp{storage: st, handles: make(map[uint32]*handle)}
	}
}

type storageApp struct {
	storage    *Storage
	handles    map[uint32]*handle
	lastHandle uint32
}

func (a *storageApp) Invoke(commandID uint32, params []servicedef.Param) teec.Result {
	st := a.storage
	st.lock.Lock()
	defer st.lock.Unlock()

	switch commandID {
	case ta.StorageCmdCreate:
		key := objectKey{storageID: params[2].B, name: string(params[0].Data)}
		if !st.available[key.storageID] {
			return teec.ErrorStorageNotAvailable
		}
		flags := params[1].A
		if _, exists := st.objects[key]; exists && flags&ta.DataFlagOverwrite == 0 {
			return teec.ErrorAccessConflict
		}
		obj := &object{data: append([]byte(nil), params[3].Data...)}
		st.objects[key] = obj
		params[1].B = a.open(key, obj, flags)
		return teec.Success

	case ta.StorageCmdOpen:
		key := objectKey{storageID: params[2].A, name: string(params[0].Data)}
		if !st.available[key.storageID] {
			return teec.ErrorStorageNotAvailable
		}
		obj, ok := st.objects[key]
		if !ok {
			return teec.ErrorItemNotFound
		}
		params[1].B = a.open(key, obj, params[1].A)
		return teec.Success

	case ta.StorageCmdClose:
		if a.handles[params[0].A] == nil {
			return teec.ErrorBadParameters
		}
		delete(a.handles, params[0].A)
		return teec.Success

	case ta.StorageCmdRead:
		h := a.handles[params[1].A]
		if h == nil {
			return teec.ErrorBadParameters
		}
		if h.flags&ta.DataFlagAccessRead == 0 {
			return teec.ErrorAccessDenied
		}
		n := params[0].Size.OrElse(0)
		if rest := len(h.obj.data) - h.pos; n > rest {
			n = rest
		}
		if n < 0 {
			n = 0
		}
		WriteOutput(&params[0], h.obj.data[h.pos:h.pos+n])
		h.pos += n
		params[1].B = uint32(n)
		return teec.Success

	case ta.StorageCmdWrite:
		h := a.handles[params[1].A]
		if h == nil {
			return teec.ErrorBadParameters
		}
		if h.flags&ta.DataFlagAccessWrite == 0 {
			return teec.ErrorAccessDenied
		}
		data := params[0].Data
		if end := h.pos + len(data); end > len(h.obj.data) {
			h.obj.data = append(h.obj.data, make([]byte, end-len(h.obj.data))...)
		}
		copy(h.obj.data[h.pos:], data)
		h.pos += len(data)
		return teec.Success

	case ta.StorageCmdSeek:
		h := a.handles[params[0].A]
		if h == nil {
			return teec.ErrorBadParameters
		}
		offset := int(int32(params[0].B))
		var pos int
		switch params[1].A {
		case ta.DataSeekSet:
			pos = offset
		case ta.DataSeekCur:
			pos = h.pos + offset
		case ta.DataSeekEnd:
			pos = len(h.obj.data) + offset
		default:
			return teec.ErrorBadParameters
		}
		if pos < 0 {
			pos = 0
		}
		if pos > len(h.obj.data) {
			h.obj.data = append(h.obj.data, make([]byte, pos-len(h.obj.data))...)
		}
		h.pos = pos
		params[1].B = uint32(pos)
		return teec.Success

	case ta.StorageCmdUnlink:
		h := a.handles[params[0].A]
		if h == nil {
			return teec.ErrorBadParameters
		}
		if h.flags&ta.DataFlagAccessWriteMeta == 0 {
			return teec.ErrorAccessDenied
		}
		if st.objects[h.key] == h.obj {
			delete(st.objects, h.key)
		}
		delete(a.handles, params[0].A)
		return teec.Success
	}
	return teec.ErrorNotSupported
}

func (a *storageApp) open(key objectKey, obj *object, flags uint32) uint32 {
	a.lastHandle++
	a.handles[a.lastHandle] = &handle{key: key, obj: obj, flags: flags}
	return a.lastHandle
}
