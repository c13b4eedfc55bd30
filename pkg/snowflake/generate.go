package snowflake

import (
	"errors"
	"strconv"

	"github.com/bwmarrin/snowflake"
)

var (
	errInvalidMachineID    = errors.New("invalid snowflake machine id")
	errInvalidDataCenterID = errors.New("invalid snowflake datacenter id")
)

// Generator 基于 snowflake 的 ID 生成器，每个进程持有一个
type Generator struct {
	node *snowflake.Node
}

func New(machineID, dataCenterID int64) (*Generator, error) {
	if machineID < 0 || machineID > 31 {
		return nil, errInvalidMachineID
	}
	if dataCenterID < 0 || dataCenterID > 31 {
		return nil, errInvalidDataCenterID
	}

	nodeID := (dataCenterID << 5) | machineID // datacenterID 和 machineID 都是 0~31

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &Generator{node: node}, nil
}

func (g *Generator) NextID() int64 {
	return g.node.Generate().Int64()
}

// NextString 生成带前缀的字符串 ID，例如 notify_1790...
func (g *Generator) NextString(prefix string) string {
	id := strconv.FormatInt(g.NextID(), 10)
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
