package xtest

import (
	"fmt"
	"sync"

	"github.com/securetee/xtest/ta"
	"github.com/securetee/xtest/teec"
)

const storageProbeObject = "xtest_storage_test"

// StorageProbe finds out which secure storages the environment provides. The probe runs once,
// on first use; its answer never changes after that. A probe that fails is not remembered, so
// the next caller tries again.
type StorageProbe struct {
	client    *teec.Client
	ids       []uint32
	available []uint32
	done      bool
	lock      sync.Mutex
}

func NewStorageProbe(client *teec.Client, ids ...uint32) *StorageProbe {
	return &StorageProbe{client: client, ids: ids}
}

// Available returns the identifiers of the usable storages, in the order they were given to
// NewStorageProbe.
func (p *StorageProbe) Available() ([]uint32, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.done {
		return p.available, nil
	}
	var available []uint32
	for _, id := range p.ids {
		ok, err := p.check(id)
		if err != nil {
			return nil, fmt.Errorf("probing storage %08x: %w", id, err)
		}
		if ok {
			available = append(available, id)
		}
	}
	p.available = available
	p.done = true
	return available, nil
}

// IsAvailable reports whether one storage is usable. It returns false if the probe fails.
func (p *StorageProbe) IsAvailable(id uint32) bool {
	available, err := p.Available()
	if err != nil {
		return false
	}
	for _, a := range available {
		if a == id {
			return true
		}
	}
	return false
}

// check creates and removes a test object in one storage.
func (p *StorageProbe) check(id uint32) (bool, error) {
	sess, err := p.client.OpenSession(ta.Storage, teec.LoginPublic, nil)
	if err != nil {
		return false, err
	}
	defer sess.Close()

	obj, err := fsCreate(sess, []byte(storageProbeObject),
		ta.DataFlagAccessWrite|ta.DataFlagAccessRead|ta.DataFlagAccessWriteMeta, 0, nil, id)
	switch result, _ := teec.ResultOf(err); result {
	case teec.Success:
		_ = fsUnlink(sess, obj)
		return true, nil
	case teec.ErrorItemNotFound, teec.ErrorStorageNotAvailable, teec.ErrorStorageNotAvailable2:
		return false, nil
	}
	return false, err
}
