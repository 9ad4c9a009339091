package auth

import (
	"hash/crc32"
	"sort"
	"strconv"
	"sync"
)

// vnode 哈希环上的一个虚拟节点
type vnode struct {
	sum  uint32
	node string
}

// Ring 一致性哈希环，决定 token 缓存键归属的分片节点。
// 节点少、读多写少，排序切片加读写锁足够。
type Ring struct {
	mu       sync.RWMutex
	replicas int
	vnodes   []vnode
	nodes    map[string]struct{}
}

// NewRing 创建哈希环，nodes 为空时生成一个默认节点兜底
func NewRing(nodes []string, replicas int) *Ring {
	if replicas <= 0 {
		replicas = 50
	}
	if len(nodes) == 0 {
		nodes = []string{"auth-node-default"}
	}
	r := &Ring{
		replicas: replicas,
		nodes:    make(map[string]struct{}),
	}
	r.Add(nodes...)
	return r
}

// Add 添加节点，已存在的忽略
func (r *Ring) Add(nodes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, node := range nodes {
		if _, ok := r.nodes[node]; ok {
			continue
		}
		r.nodes[node] = struct{}{}
		for i := 0; i < r.replicas; i++ {
			sum := crc32.ChecksumIEEE([]byte(node + "#" + strconv.Itoa(i)))
			r.vnodes = append(r.vnodes, vnode{sum: sum, node: node})
		}
	}
	sort.Slice(r.vnodes, func(i, j int) bool { return r.vnodes[i].sum < r.vnodes[j].sum })
}

// GetNode 顺时针找到 key 归属的节点
func (r *Ring) GetNode(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.vnodes) == 0 {
		return ""
	}
	sum := crc32.ChecksumIEEE([]byte(key))
	i := sort.Search(len(r.vnodes), func(i int) bool { return r.vnodes[i].sum >= sum })
	if i == len(r.vnodes) {
		i = 0
	}
	return r.vnodes[i].node
}
