/*
Package bt executes plans as go-behaviortree trees.

A plan is an ordered list of action names. Executor maps each name to a
Handler and builds a memorized sequence, so a step that returns bt.Running is
ticked again on the next tick while the steps before it are not repeated.
Handlers share a Blackboard, which is also the input the sensor package reads
world state from.

	bb := bt.NewBlackboard(map[string]any{"armedwithgun": true})
	exec := bt.NewExecutor(bb)
	exec.RegisterEffects(planner) // simulate every action by its effect
	status, err := exec.Run(ctx, plan, 10*time.Millisecond)
*/
package bt
