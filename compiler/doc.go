/*

Process of compilation

Lowered instructions (pulley.Inst, virtual registers) ->
	register allocation (pulley.GetOperands, OperandList.Assign) ->
Allocated instructions (physical registers) ->
	emit (back.EmitFunc) ->
Function code with label uses and relocations (back.Code) ->
	link (back.EmitModule) ->
Module bytecode

*/
package compiler
