package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/swarmflow/memory"
	"github.com/BaSui01/swarmflow/types"
)

// Node is a single unit of work in a graph workflow.
type Node struct {
	// ID is the unique node identifier within the graph.
	ID string
	// Step is the work the node performs.
	Step Step
}

// Graph is a directed acyclic workflow: nodes execute after all of
// their predecessors have completed, and independent nodes execute
// concurrently.
type Graph struct {
	Name        string
	Description string

	nodes map[string]*Node
	// edges maps node IDs to their successor node IDs.
	edges map[string][]string
	entry string
}

// NewGraph creates an empty graph workflow.
func NewGraph(name, description string) *Graph {
	return &Graph{
		Name:        name,
		Description: description,
		nodes:       make(map[string]*Node),
		edges:       make(map[string][]string),
	}
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(node *Node) *Graph {
	g.nodes[node.ID] = node
	return g
}

// AddStep adds a step as a node whose ID is the step name.
func (g *Graph) AddStep(step Step) *Graph {
	return g.AddNode(&Node{ID: step.Name(), Step: step})
}

// AddEdge adds a directed edge between two nodes.
func (g *Graph) AddEdge(fromID, toID string) *Graph {
	g.edges[fromID] = append(g.edges[fromID], toID)
	return g
}

// SetEntry marks the entry node.
func (g *Graph) SetEntry(nodeID string) *Graph {
	g.entry = nodeID
	return g
}

// Validate checks structural integrity: the entry exists, every edge
// references known nodes, every node carries a step, and the graph has
// no cycle. Cycles are reported as GRAPH_CYCLE, everything else as
// WORKFLOW_INVALID.
func (g *Graph) Validate() error {
	if g.Name == "" {
		return types.NewError(types.ErrWorkflowInvalid, "graph name is required")
	}
	if len(g.nodes) == 0 {
		return types.NewError(types.ErrWorkflowInvalid, "graph has no nodes")
	}
	if g.entry == "" {
		return types.NewError(types.ErrWorkflowInvalid, "graph has no entry node")
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return types.NewError(types.ErrWorkflowInvalid, "entry references unknown node: "+g.entry)
	}
	for id, node := range g.nodes {
		if node.Step == nil {
			return types.NewError(types.ErrWorkflowInvalid, "node has no step: "+id)
		}
	}
	for from, successors := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return types.NewError(types.ErrWorkflowInvalid, "edge from unknown node: "+from)
		}
		for _, to := range successors {
			if _, ok := g.nodes[to]; !ok {
				return types.NewError(types.ErrWorkflowInvalid, "edge to unknown node: "+to)
			}
		}
	}
	if cycle := g.findCycle(); cycle != "" {
		return types.NewError(types.ErrGraphCycle, "graph contains a cycle through node: "+cycle)
	}
	return nil
}

// findCycle runs a three-color depth-first search and returns the ID of
// a node on a cycle, or empty when the graph is acyclic.
func (g *Graph) findCycle() string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	colors := make(map[string]int, len(g.nodes))

	var visit func(id string) string
	visit = func(id string) string {
		colors[id] = gray
		for _, next := range g.edges[id] {
			switch colors[next] {
			case gray:
				return next
			case white:
				if found := visit(next); found != "" {
					return found
				}
			}
		}
		colors[id] = black
		return ""
	}

	for id := range g.nodes {
		if colors[id] == white {
			if found := visit(id); found != "" {
				return found
			}
		}
	}
	return ""
}

// GraphResult is the outcome of one graph run.
type GraphResult struct {
	// RunID identifies this execution.
	RunID string
	// Workflow is the executed graph's name.
	Workflow string
	// Outputs holds each executed node's output keyed by node ID.
	Outputs map[string]any
	// Duration is the wall time of the run.
	Duration time.Duration
}

// GraphEngine executes graph workflows.
type GraphEngine struct {
	store  memory.Store
	logger *zap.Logger
}

// NewGraphEngine creates a graph workflow engine. The store may be nil,
// in which case executions are not recorded.
func NewGraphEngine(store memory.Store, logger *zap.Logger) *GraphEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphEngine{
		store:  store,
		logger: logger.With(zap.String("component", "graph_engine")),
	}
}

// ExecuteGraph validates the graph and runs the nodes reachable from
// the entry in dependency order. Nodes whose predecessors have all
// completed run concurrently; a node receives the entry input when it
// has no predecessor, the predecessor's output when it has one, and a
// map of predecessor outputs keyed by node ID when it has several.
func (e *GraphEngine) ExecuteGraph(ctx context.Context, graph *Graph, input any) (*GraphResult, error) {
	if err := graph.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	started := time.Now()

	reachable := graph.reachableFromEntry()
	indegree := make(map[string]int, len(reachable))
	predecessors := make(map[string][]string, len(reachable))
	for id := range reachable {
		indegree[id] = 0
	}
	for from, successors := range graph.edges {
		if !reachable[from] {
			continue
		}
		for _, to := range successors {
			indegree[to]++
			predecessors[to] = append(predecessors[to], from)
		}
	}

	outputs := make(map[string]any, len(reachable))
	var mu sync.Mutex

	ready := []string{}
	for id, degree := range indegree {
		if degree == 0 {
			ready = append(ready, id)
		}
	}

	for len(ready) > 0 {
		group, groupCtx := errgroup.WithContext(ctx)
		batch := ready
		for _, id := range batch {
			node := graph.nodes[id]
			nodeInput := e.inputFor(id, predecessors[id], outputs, input)
			group.Go(func() error {
				output, err := node.Step.Execute(groupCtx, nodeInput)
				e.record(groupCtx, runID, node.ID, err == nil)
				if err != nil {
					return types.NewError(types.ErrWorkflowInvalid, "node failed: "+node.ID).WithCause(err)
				}
				mu.Lock()
				outputs[node.ID] = output
				mu.Unlock()
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}

		next := []string{}
		for _, id := range batch {
			for _, successor := range graph.edges[id] {
				indegree[successor]--
				if indegree[successor] == 0 {
					next = append(next, successor)
				}
			}
		}
		ready = next
	}

	e.logger.Info("graph executed",
		zap.String("workflow", graph.Name),
		zap.String("run_id", runID),
		zap.Int("nodes", len(outputs)),
	)
	return &GraphResult{
		RunID:    runID,
		Workflow: graph.Name,
		Outputs:  outputs,
		Duration: time.Since(started),
	}, nil
}

// inputFor resolves a node's input from its predecessors' outputs.
func (e *GraphEngine) inputFor(id string, preds []string, outputs map[string]any, entryInput any) any {
	switch len(preds) {
	case 0:
		return entryInput
	case 1:
		return outputs[preds[0]]
	default:
		merged := make(map[string]any, len(preds))
		for _, pred := range preds {
			merged[pred] = outputs[pred]
		}
		return merged
	}
}

// reachableFromEntry collects the node IDs reachable from the entry.
func (g *Graph) reachableFromEntry() map[string]bool {
	reachable := make(map[string]bool, len(g.nodes))
	stack := []string{g.entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reachable[id] {
			continue
		}
		reachable[id] = true
		stack = append(stack, g.edges[id]...)
	}
	return reachable
}

func (e *GraphEngine) record(ctx context.Context, runID, nodeID string, success bool) {
	if e.store == nil {
		return
	}
	err := e.store.StoreExecution(ctx, memory.ExecutionRecord{
		TaskID:     runID,
		SubTaskID:  nodeID,
		Success:    success,
		RecordedAt: time.Now(),
	})
	if err != nil {
		e.logger.Warn("failed to record graph node", zap.Error(err))
	}
}
